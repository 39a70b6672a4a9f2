package scoring

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
)

const defaultReloadDebounce = 500 * time.Millisecond

// ConfigWatcher re-applies a YAML policy file to a Configuration whenever the
// file changes on disk
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	config   *Configuration
	path     string
	debounce time.Duration
	logger   logger.Logger
	onReload func(*Config, error)
}

// NewConfigWatcher watches the directory holding path so that editors that
// replace the file atomically are picked up too
func NewConfigWatcher(config *Configuration, path string, log logger.Logger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	return &ConfigWatcher{
		watcher:  watcher,
		config:   config,
		path:     abs,
		debounce: defaultReloadDebounce,
		logger:   log,
	}, nil
}

// OnReload registers a callback invoked after every reload attempt
func (w *ConfigWatcher) OnReload(fn func(*Config, error)) {
	w.onReload = fn
}

// Run watches for changes until ctx is cancelled
func (w *ConfigWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounce, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Scoring config watcher error", err, "path", w.path)
		}
	}
}

func (w *ConfigWatcher) reload() {
	config, err := ApplyConfigFile(w.config, w.path)
	if err != nil {
		w.logger.Error("Scoring config reload failed", err, "path", w.path)
	} else {
		w.logger.Info("Scoring config reloaded",
			"path", w.path,
			"medium", config.Thresholds.Medium,
			"high", config.Thresholds.High)
	}
	if w.onReload != nil {
		w.onReload(config, err)
	}
}
