package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

const dueBatchSize = 500

type reminderStore interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	ListDue(ctx context.Context, today time.Time, limit int) ([]models.Reminder, error)
	FindByID(ctx context.Context, id string) (*models.Reminder, error)
	List(ctx context.Context, filter repository.ReminderFilter) ([]models.Reminder, error)
}

type reminderDispatcher interface {
	Dispatch(ctx context.Context, reminder models.Reminder) (models.DeliveryOutcome, error)
}

// ReminderRequest describes a deferred notification.
type ReminderRequest struct {
	Ref             models.RelatedRef      `validate:"required"`
	RecipientUserID string                 `validate:"required"`
	Channel         models.ReminderChannel `validate:"omitempty,oneof=sms email in-app"`
	ReminderType    string                 `validate:"required,max=64"`
	Message         string                 `validate:"required,max=2000"`
	SendOn          time.Time              `validate:"required"`
}

// SchedulerConfig carries the clock and defaults the scheduler needs.
type SchedulerConfig struct {
	DefaultChannel models.ReminderChannel
	Location       *time.Location
	Now            func() time.Time
	// BatchSize caps each ListDue read during a sweep.
	BatchSize      int
}

// ReminderScheduler persists reminders and sweeps the ones that are due.
type ReminderScheduler struct {
	store      reminderStore
	dispatcher reminderDispatcher
	validator  *validator.Validate
	cfg        SchedulerConfig
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewReminderScheduler constructs the scheduler.
func NewReminderScheduler(store reminderStore, dispatcher reminderDispatcher, validate *validator.Validate, cfg SchedulerConfig, metrics *MetricsService, logger *zap.Logger) *ReminderScheduler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultChannel == "" {
		cfg.DefaultChannel = models.ChannelInApp
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = dueBatchSize
	}
	return &ReminderScheduler{store: store, dispatcher: dispatcher, validator: validate, cfg: cfg, metrics: metrics, logger: logger}
}

// Today is the current calendar date in the school's time zone, as midnight UTC.
func (s *ReminderScheduler) Today() time.Time {
	return dateOnly(s.cfg.Now().In(s.cfg.Location))
}

// Queue stores a pending reminder. When it is already due it is dispatched
// before returning; dispatch problems are logged only.
func (s *ReminderScheduler) Queue(ctx context.Context, req ReminderRequest) (*models.Reminder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reminder payload")
	}
	channel := req.Channel
	if channel == "" {
		channel = s.cfg.DefaultChannel
	}

	reminder := &models.Reminder{
		RecipientUserID: req.RecipientUserID,
		Channel:         channel,
		ReminderType:    req.ReminderType,
		Message:         req.Message,
		SendOn:          models.NewDate(req.SendOn),
	}
	reminder.SetRef(req.Ref)

	if err := s.store.Create(ctx, reminder); err != nil {
		return nil, appErrors.Internal(err, "failed to queue reminder")
	}

	if reminder.SendOn.After(s.Today()) {
		return reminder, nil
	}

	outcome, err := s.dispatcher.Dispatch(ctx, *reminder)
	if err != nil {
		s.logger.Warn("immediate reminder dispatch failed", zap.String("reminder_id", reminder.ID), zap.Error(err))
		return reminder, nil
	}
	if outcome != models.OutcomeSkipped {
		sentAt := time.Now().UTC()
		reminder.Status = models.ReminderStatusSent
		reminder.SentAt = &sentAt
	}
	return reminder, nil
}

// Get loads one reminder.
func (s *ReminderScheduler) Get(ctx context.Context, id string) (*models.Reminder, error) {
	reminder, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
		}
		return nil, appErrors.Internal(err, "failed to load reminder")
	}
	return reminder, nil
}

// List returns reminders matching filter, newest first.
func (s *ReminderScheduler) List(ctx context.Context, filter repository.ReminderFilter) ([]models.Reminder, error) {
	reminders, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reminders")
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	return reminders, nil
}

// ProcessDue dispatches every pending reminder whose send date is today or earlier.
// Reminders dated later are not read.
func (s *ReminderScheduler) ProcessDue(ctx context.Context) (*dto.ReminderSweepResult, error) {
	start := time.Now()
	today := s.Today()
	result := &dto.ReminderSweepResult{Today: today.Format(models.DateLayout), RanAt: start.UTC()}

	// A reminder whose claim failed stays pending and comes back in the next batch.
	seen := make(map[string]struct{})
	for {
		due, err := s.store.ListDue(ctx, today, s.cfg.BatchSize)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load due reminders")
		}
		progressed := 0
		for _, reminder := range due {
			if _, ok := seen[reminder.ID]; ok {
				continue
			}
			seen[reminder.ID] = struct{}{}
			result.Due++
			progressed++

			if err := ctx.Err(); err != nil {
				s.logger.Warn("reminder sweep interrupted", zap.Error(err))
				return s.finish(result, start), nil
			}
			outcome, err := s.dispatcher.Dispatch(ctx, reminder)
			if err != nil {
				result.Failed++
				s.logger.Warn("reminder dispatch failed", zap.String("reminder_id", reminder.ID), zap.Error(err))
				continue
			}
			switch outcome {
			case models.OutcomeDelivered:
				result.Delivered++
			case models.OutcomeFallback:
				result.Fallback++
			case models.OutcomeSkipped:
				result.Skipped++
			}
		}

		if len(due) < s.cfg.BatchSize || progressed == 0 {
			break
		}
	}

	return s.finish(result, start), nil
}

func (s *ReminderScheduler) finish(result *dto.ReminderSweepResult, start time.Time) *dto.ReminderSweepResult {
	result.Processed = result.Delivered + result.Fallback
	s.metrics.ObserveReminderSweep(result.Processed, time.Since(start))
	if result.Due > 0 {
		s.logger.Info("reminder sweep finished",
			zap.Int("due", result.Due),
			zap.Int("processed", result.Processed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
	return result
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
