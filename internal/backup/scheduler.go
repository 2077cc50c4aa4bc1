package backup

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

// Source provides a consistent copy of the ledger
type Source interface {
	Snapshot(ctx context.Context) (models.Ledger, error)
}

// Recorder receives the outcome of each scheduled run. Optional.
type Recorder interface {
	RecordBackup(outcome string)
}

const (
	OutcomeWritten = "written"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Scheduler takes a snapshot every interval until its context is cancelled.
type Scheduler struct {
	source      Source
	snapshotter *Snapshotter
	interval    time.Duration
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

func NewScheduler(source Source, snapshotter *Snapshotter, interval time.Duration, recorder Recorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		source:      source,
		snapshotter: snapshotter,
		interval:    interval,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// Run blocks until ctx is done. A non-positive interval disables the schedule.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("daily backup disabled")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("backup scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce takes a single snapshot and returns the file path, or "" when nothing was written.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	ledger, err := s.source.Snapshot(ctx)
	if err != nil {
		s.record(OutcomeFailed)
		s.logger.Error("backup failed to read ledger", zap.Error(err))
		return "", err
	}

	path, err := s.snapshotter.Write(ctx, ledger, s.now())
	switch {
	case errors.Is(err, ErrAlreadyExists):
		s.record(OutcomeSkipped)
		s.logger.Info("backup already taken today", zap.String("path", path))
		return "", nil
	case err != nil:
		s.record(OutcomeFailed)
		s.logger.Error("backup failed", zap.Error(err))
		return "", err
	}

	s.record(OutcomeWritten)
	s.logger.Info("daily backup saved", zap.String("path", path), zap.Int("accounts", len(ledger)))
	return path, nil
}

func (s *Scheduler) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordBackup(outcome)
	}
}
