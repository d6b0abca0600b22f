package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

const upcomingWindowDays = 7

// Dashboard scopes.
const (
	DashboardScopeSchool = "school"
	DashboardScopeOwn    = "own"
)

type pendingCounter interface {
	CountPending(ctx context.Context, recipientUserID string) (int, error)
}

// DashboardService builds the landing summary.
type DashboardService struct {
	bookings calendarRepository
	pending  pendingCounter
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(bookings calendarRepository, pending pendingCounter, loc *time.Location, now func() time.Time, logger *zap.Logger) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{bookings: bookings, pending: pending, loc: loc, now: now, logger: logger}
}

// Summary returns today's bookings, the number of scheduled bookings in the
// next week and the pending reminder count. Staff see the whole school;
// students see their own bookings and reminders.
func (s *DashboardService) Summary(ctx context.Context, claims *models.JWTClaims) (*dto.DashboardSummary, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	today := dateOnly(s.now().In(s.loc))

	scope := DashboardScopeSchool
	filter := repository.BookingFilter{From: today, To: today}
	recipient := ""
	if !claims.Role.IsStaff() {
		scope = DashboardScopeOwn
		filter.StudentUserID = claims.UserID
		recipient = claims.UserID
	}

	todays, err := s.bookings.ListSummaries(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load today's bookings")
	}
	sortSummaries(todays)
	if todays == nil {
		todays = []models.BookingSummary{}
	}

	filter.From = today.AddDate(0, 0, 1)
	filter.To = today.AddDate(0, 0, upcomingWindowDays)
	filter.Status = models.BookingStatusScheduled
	upcoming, err := s.bookings.ListSummaries(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load upcoming bookings")
	}

	pending, err := s.pending.CountPending(ctx, recipient)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count pending reminders")
	}

	return &dto.DashboardSummary{
		Date:             today.Format(models.DateLayout),
		Scope:            scope,
		Today:            todays,
		UpcomingCount:    len(upcoming),
		PendingReminders: pending,
	}, nil
}
