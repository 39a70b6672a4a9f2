package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
)

// Archive keeps one file per reservation with the first payload received for it
type Archive struct {
	dir    string
	logger logger.Logger
}

// New creates an archive rooted at dir. An empty dir disables archiving.
func New(dir string, log logger.Logger) *Archive {
	return &Archive{dir: dir, logger: log}
}

// Enabled reports whether payloads are written anywhere
func (a *Archive) Enabled() bool {
	return a != nil && a.dir != ""
}

// FileName returns the archive file name for a reservation id
func FileName(id string) string {
	if id == "" {
		id = "unknown"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, id)
	return "reservation-" + safe + ".json"
}

// Save writes payload as reservation-<id>.json unless that file already
// exists. It reports whether a file was written.
func (a *Archive) Save(id string, payload []byte) (bool, error) {
	if !a.Enabled() {
		return false, nil
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := filepath.Join(a.dir, FileName(id))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			a.logger.Debug("Payload already archived, skipping", "reservation_id", id, "path", path)
			return false, nil
		}
		return false, fmt.Errorf("failed to create payload file: %w", err)
	}
	defer f.Close()

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(payload)
	}
	if _, err := f.Write(pretty.Bytes()); err != nil {
		return false, fmt.Errorf("failed to write payload file: %w", err)
	}

	a.logger.Info("Archived webhook payload", "reservation_id", id, "path", path)
	return true, nil
}

// Payload is one JSON document read from a directory
type Payload struct {
	Name string
	Body []byte
}

// LoadDir reads every *.json file in dir except *.expected.json, sorted by name
func LoadDir(dir string) ([]Payload, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".expected.json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	payloads := make([]Payload, 0, len(names))
	for _, name := range names {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		payloads = append(payloads, Payload{Name: name, Body: body})
	}
	return payloads, nil
}
