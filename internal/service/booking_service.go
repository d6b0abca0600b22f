package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

// LessonReminderType labels the reminder queued for every new booking.
const LessonReminderType = "lesson_reminder"

type bookingRepository interface {
	WithResourceLock(ctx context.Context, keys []string, fn func(store repository.BookingStore) error) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type enrollmentDirectory interface {
	FindEnrollmentContact(ctx context.Context, enrollmentID string) (*models.EnrollmentContact, error)
}

type reminderQueue interface {
	Queue(ctx context.Context, req ReminderRequest) (*models.Reminder, error)
}

type monthInvalidator interface {
	InvalidateMonth(ctx context.Context, date time.Time)
}

// BookingRequest is the payload for creating or rewriting a booking.
type BookingRequest struct {
	EnrollmentID  string  `json:"enrollment_id" validate:"required"`
	InstructorID  string  `json:"instructor_id" validate:"required"`
	VehicleID     *string `json:"vehicle_id"`
	BranchID      *string `json:"branch_id"`
	EventType     string  `json:"event_type" validate:"required,oneof=lesson exam assessment"`
	ScheduledDate string  `json:"scheduled_date" validate:"required,ymd"`
	StartTime     string  `json:"start_time" validate:"required,hhmm"`
	EndTime       string  `json:"end_time" validate:"required,hhmm"`
	Status        string  `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Topic         *string `json:"topic" validate:"omitempty,max=255"`
	Notes         *string `json:"notes"`
}

// BookingService is the only writer of bookings. Every write runs under the
// instructor and vehicle locks for the booking date.
type BookingService struct {
	repo           bookingRepository
	enrollments    enrollmentDirectory
	reminders      reminderQueue
	calendar       monthInvalidator
	metrics        *MetricsService
	defaultChannel models.ReminderChannel
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewBookingService wires the workflow. reminders and calendar may be nil.
func NewBookingService(repo bookingRepository, enrollments enrollmentDirectory, reminders reminderQueue, calendar monthInvalidator, defaultChannel models.ReminderChannel, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultChannel == "" {
		defaultChannel = models.ChannelInApp
	}
	svc := &BookingService{
		repo:           repo,
		enrollments:    enrollments,
		reminders:      reminders,
		calendar:       calendar,
		metrics:        metrics,
		defaultChannel: defaultChannel,
		validator:      validate,
		logger:         logger,
	}
	registerBookingValidations(svc.validator)
	return svc
}

func registerBookingValidations(v *validator.Validate) {
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		t, err := models.ParseTimeOfDay(fl.Field().String())
		return err == nil && t.Valid()
	})
	v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
}

// Get loads a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Internal(err, "failed to load booking")
	}
	return booking, nil
}

// Create stores a new booking when its instructor and vehicle are free, then
// queues the lesson reminder for the day before.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	booking, err := s.buildBooking(req)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithResourceLock(ctx, lockKeys(booking), func(store repository.BookingStore) error {
		if err := s.ensureNoConflict(ctx, store, booking, ""); err != nil {
			return err
		}
		if err := store.Create(ctx, booking); err != nil {
			return appErrors.Internal(err, "failed to create booking")
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to create booking")
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("instructor_id", booking.InstructorID),
		zap.String("date", booking.DateKey()),
	)
	s.queueLessonReminder(ctx, booking, "Lesson booked")
	s.invalidate(ctx, booking.ScheduledDate.Time)
	return booking, nil
}

// Update rewrites every mutable field of an existing booking. The booking's
// own current slot never counts as a conflict.
func (s *BookingService) Update(ctx context.Context, id string, req BookingRequest) (*models.Booking, error) {
	updated, err := s.buildBooking(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.ReminderSent = existing.ReminderSent
	if req.Status == "" {
		updated.Status = existing.Status
	}

	err = s.repo.WithResourceLock(ctx, lockKeys(updated), func(store repository.BookingStore) error {
		if err := s.ensureNoConflict(ctx, store, updated, existing.ID); err != nil {
			return err
		}
		if err := store.Update(ctx, updated); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
			}
			return appErrors.Internal(err, "failed to update booking")
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to update booking")
	}

	s.logger.Info("booking updated", zap.String("booking_id", updated.ID), zap.String("date", updated.DateKey()))
	if rescheduled(existing, updated) && updated.Status == models.BookingStatusScheduled {
		s.queueLessonReminder(ctx, updated, "Lesson moved")
	}
	s.invalidate(ctx, existing.ScheduledDate.Time)
	if existing.ScheduledDate.Format("2006-01") != updated.ScheduledDate.Format("2006-01") {
		s.invalidate(ctx, updated.ScheduledDate.Time)
	}
	return updated, nil
}

// UpdateStatus moves a booking through its lifecycle without touching the slot.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error) {
	next := models.BookingStatus(strings.ToLower(strings.TrimSpace(status)))
	switch next {
	case models.BookingStatusScheduled, models.BookingStatusCompleted, models.BookingStatusCancelled:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be scheduled, completed or cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Internal(err, "failed to update booking status")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking status changed", zap.String("booking_id", id), zap.String("status", string(next)))
	s.invalidate(ctx, booking.ScheduledDate.Time)
	return booking, nil
}

func (s *BookingService) buildBooking(req BookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	date, _ := models.ParseDate(req.ScheduledDate)
	start, _ := models.ParseTimeOfDay(req.StartTime)
	end, _ := models.ParseTimeOfDay(req.EndTime)
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	status := models.BookingStatus(req.Status)
	if status == "" {
		status = models.BookingStatusScheduled
	}

	return &models.Booking{
		EnrollmentID:  strings.TrimSpace(req.EnrollmentID),
		InstructorID:  strings.TrimSpace(req.InstructorID),
		VehicleID:     trimmedOrNil(req.VehicleID),
		BranchID:      trimmedOrNil(req.BranchID),
		EventType:     models.EventType(req.EventType),
		ScheduledDate: date,
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		Topic:         trimmedOrNil(req.Topic),
		Notes:         trimmedOrNil(req.Notes),
	}, nil
}

func (s *BookingService) ensureNoConflict(ctx context.Context, store repository.BookingStore, booking *models.Booking, ignoreID string) error {
	existing, err := store.ListForResources(ctx, booking.ScheduledDate.Time, booking.InstructorID, booking.VehicleID)
	if err != nil {
		return appErrors.Internal(err, "failed to check booking conflicts")
	}
	conflict := FirstConflict(existing, ConflictQuery{
		InstructorID: booking.InstructorID,
		Date:         booking.ScheduledDate.Time,
		Start:        booking.StartTime,
		End:          booking.EndTime,
		VehicleID:    booking.VehicleID,
		ExcludeID:    ignoreID,
	})
	if conflict == nil {
		return nil
	}
	s.metrics.IncBookingConflict(conflict.Dimension)
	return wrapConflict(*conflict)
}

func wrapConflict(conflict models.BookingConflict) error {
	message := "instructor is already booked for this time"
	if conflict.Dimension == models.ConflictDimensionVehicle {
		message = "vehicle is already booked for this time"
	}
	domainErr := &models.BookingConflictError{Message: message, Conflict: conflict}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
		fmt.Sprintf("%s (%s %s-%s)", message, conflict.ScheduledDate, conflict.StartTime, conflict.EndTime))
}

// rescheduled reports whether a reminder already queued for existing now names the wrong slot.
func rescheduled(existing, updated *models.Booking) bool {
	return existing.DateKey() != updated.DateKey() || existing.StartTime != updated.StartTime
}

func (s *BookingService) queueLessonReminder(ctx context.Context, booking *models.Booking, headline string) {
	if s.reminders == nil || s.enrollments == nil {
		return
	}
	log := s.logger.With(zap.String("booking_id", booking.ID))

	contact, err := s.enrollments.FindEnrollmentContact(ctx, booking.EnrollmentID)
	if err != nil {
		log.Warn("lesson reminder skipped: enrollment not resolved", zap.String("enrollment_id", booking.EnrollmentID), zap.Error(err))
		return
	}
	if contact.StudentUserID == "" {
		log.Warn("lesson reminder skipped: student has no user account", zap.String("enrollment_id", booking.EnrollmentID))
		return
	}

	_, err = s.reminders.Queue(ctx, ReminderRequest{
		Ref:             models.BookingRef{ID: booking.ID},
		RecipientUserID: contact.StudentUserID,
		Channel:         s.defaultChannel,
		ReminderType:    LessonReminderType,
		Message:         fmt.Sprintf("%s for %s at %s", headline, booking.DateKey(), booking.StartTime),
		SendOn:          booking.ScheduledDate.AddDate(0, 0, -1),
	})
	if err != nil {
		log.Warn("lesson reminder not queued", zap.Error(err))
	}
}

func (s *BookingService) invalidate(ctx context.Context, date time.Time) {
	if s.calendar != nil {
		s.calendar.InvalidateMonth(ctx, date)
	}
}

func lockKeys(booking *models.Booking) []string {
	keys := []string{repository.ResourceLockKey("instructor", booking.InstructorID, booking.ScheduledDate.Time)}
	if booking.VehicleID != nil {
		keys = append(keys, repository.ResourceLockKey("vehicle", *booking.VehicleID, booking.ScheduledDate.Time))
	}
	return keys
}

func asAppError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, message)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
