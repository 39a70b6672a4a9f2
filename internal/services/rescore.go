package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/ajharbinger/guest-risk-scorer/internal/errors"
	"github.com/ajharbinger/guest-risk-scorer/internal/repository"
)

// RescoreOptions controls a backfill over every stored reservation
type RescoreOptions struct {
	BatchSize     int `json:"batch_size"`
	MaxConcurrent int `json:"max_concurrent"`
}

// DefaultRescoreOptions returns the defaults used by the CLI and config reloads
func DefaultRescoreOptions() RescoreOptions {
	return RescoreOptions{
		BatchSize:     50,
		MaxConcurrent: 4,
	}
}

// RescoreStats summarizes one backfill run
type RescoreStats struct {
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	Found        int           `json:"found"`
	Processed    int           `json:"processed"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	LevelChanges int           `json:"level_changes"`
}

// Summary renders the stats for a log line
func (s *RescoreStats) Summary() string {
	return fmt.Sprintf("found=%d, processed=%d, succeeded=%d, failed=%d, level_changes=%d, duration=%v",
		s.Found, s.Processed, s.Succeeded, s.Failed, s.LevelChanges, s.Duration.Round(time.Millisecond))
}

type batchStats struct {
	processed    int
	succeeded    int
	failed       int
	levelChanges int
}

// RescoreAll rescores every stored reservation under the current
// configuration. Each batch is written in one transaction.
func (s *reservationServiceImpl) RescoreAll(ctx context.Context, opts RescoreOptions) (*RescoreStats, error) {
	defaults := DefaultRescoreOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaults.MaxConcurrent
	}

	stats := &RescoreStats{StartTime: time.Now()}

	stored, err := s.repos.Reservations.List()
	if err != nil {
		return stats, errors.DatabaseError("failed to list reservations", err).WithOperation("RescoreAll")
	}
	stats.Found = len(stored)
	if len(stored) == 0 {
		stats.EndTime = time.Now()
		s.logger.Info("No reservations to rescore")
		return stats, nil
	}

	s.logger.Info("Starting rescore", "found", len(stored), "batch_size", opts.BatchSize, "max_concurrent", opts.MaxConcurrent)

	semaphore := make(chan struct{}, opts.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < len(stored); i += opts.BatchSize {
		end := i + opts.BatchSize
		if end > len(stored) {
			end = len(stored)
		}

		wg.Add(1)
		go func(batch []repository.StoredReservation) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-semaphore }()

			b := s.rescoreBatch(ctx, batch)

			mu.Lock()
			stats.Processed += b.processed
			stats.Succeeded += b.succeeded
			stats.Failed += b.failed
			stats.LevelChanges += b.levelChanges
			mu.Unlock()
		}(stored[i:end])
	}

	wg.Wait()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if err := ctx.Err(); err != nil {
		s.logger.Warn("Rescore interrupted", "summary", stats.Summary())
		return stats, err
	}
	s.logger.Info("Rescore completed", "summary", stats.Summary())
	return stats, nil
}

func (s *reservationServiceImpl) rescoreBatch(ctx context.Context, batch []repository.StoredReservation) batchStats {
	var b batchStats
	err := s.repos.Tx.WithTransaction(func(tx *repository.Repositories) error {
		b = batchStats{}
		for _, item := range batch {
			if ctx.Err() != nil {
				return nil
			}
			b.processed++

			// the listed copy may predate an edit or refresh
			current, err := tx.Reservations.GetForUpdate(item.Reservation.ID)
			if err != nil {
				if stderrors.Is(err, repository.ErrNotFound) {
					b.succeeded++
					continue
				}
				return err
			}

			report, err := s.score(SourceRescore, current.Reservation)
			if err != nil {
				s.logger.Warn("Skipping reservation during rescore", "reservation_id", current.Reservation.ID, "error", err.Error())
				b.failed++
				continue
			}
			if err := tx.Reservations.Save(current.Reservation.ID, current.Reservation, *report); err != nil {
				return err
			}
			if report.Level != current.RiskReport.Level {
				b.levelChanges++
			}
			b.succeeded++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Rescore batch failed", err, "size", len(batch))
		return batchStats{processed: len(batch), failed: len(batch)}
	}
	return b
}
