package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/dto"
)

type dueProcessor interface {
	ProcessDue(ctx context.Context) (*dto.ReminderSweepResult, error)
}

// ReminderSweeper runs ProcessDue on a cron schedule. Overlapping runs are skipped.
type ReminderSweeper struct {
	cron      *cron.Cron
	processor dueProcessor
	timeout   time.Duration
	logger    *zap.Logger
}

// NewReminderSweeper registers the sweep on schedule (standard 5-field cron spec).
func NewReminderSweeper(processor dueProcessor, schedule string, timeout time.Duration, loc *time.Location, logger *zap.Logger) (*ReminderSweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	cl := cronLogger{l: logger.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s := &ReminderSweeper{cron: c, processor: processor, timeout: timeout, logger: logger}
	if _, err := c.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("schedule reminder sweep %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs a single sweep bounded by the configured timeout.
func (s *ReminderSweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.processor.ProcessDue(ctx)
	if err != nil {
		s.logger.Error("scheduled reminder sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("scheduled reminder sweep", zap.Int("processed", result.Processed), zap.Int("skipped", result.Skipped))
}

// Start begins the schedule in its own goroutine.
func (s *ReminderSweeper) Start() {
	s.cron.Start()
	s.logger.Info("reminder sweeper started", zap.Int("entries", len(s.cron.Entries())))
}

// Stop halts the schedule and waits for a running sweep or ctx, whichever ends first.
func (s *ReminderSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("reminder sweeper stop timed out")
	}
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
