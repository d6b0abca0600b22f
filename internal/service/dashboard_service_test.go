package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

func dashboardFixture() (*fakeSummaryRepo, *fakeReminderStore) {
	cancelled := summary("b4", "2025-03-06", "09:00", "10:00", "Rina")
	cancelled.Status = models.BookingStatusCancelled
	repo := &fakeSummaryRepo{summaries: []models.BookingSummary{
		summary("b2", "2025-03-04", "13:00", "14:00", "Budi"),
		summary("b1", "2025-03-04", "09:00", "10:00", "Siti"),
		summary("b3", "2025-03-06", "09:00", "10:00", "Siti"),
		cancelled,
		summary("b5", "2025-03-11", "09:00", "10:00", "Siti"),
		summary("b6", "2025-03-12", "09:00", "10:00", "Siti"),
	}}
	store := newFakeReminderStore(
		pendingReminder("r1", "student-1", models.ChannelInApp, "2025-03-10"),
		pendingReminder("r2", "student-2", models.ChannelInApp, "2025-03-10"),
	)
	return repo, store
}

func TestDashboardSummaryForStaff(t *testing.T) {
	repo, store := dashboardFixture()
	svc := NewDashboardService(repo, store, nil, fixedClock("2025-03-04T08:00:00Z"), nil)

	out, err := svc.Summary(context.Background(), &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", out.Date)
	assert.Equal(t, DashboardScopeSchool, out.Scope)
	require.Len(t, out.Today, 2)
	assert.Equal(t, "b1", out.Today[0].ID)
	assert.Equal(t, 2, out.UpcomingCount, "cancelled and out-of-window bookings are excluded")
	assert.Equal(t, 2, out.PendingReminders)

	require.Len(t, repo.filters, 2)
	assert.Empty(t, repo.filters[0].StudentUserID)
	assert.Equal(t, day("2025-03-05"), repo.filters[1].From)
	assert.Equal(t, day("2025-03-11"), repo.filters[1].To)
}

func TestDashboardSummaryForStudentIsScoped(t *testing.T) {
	repo, store := dashboardFixture()
	svc := NewDashboardService(repo, store, nil, fixedClock("2025-03-04T08:00:00Z"), nil)

	out, err := svc.Summary(context.Background(), &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, DashboardScopeOwn, out.Scope)
	assert.Equal(t, 1, out.PendingReminders)
	for _, f := range repo.filters {
		assert.Equal(t, "student-1", f.StudentUserID)
	}
}

func TestDashboardSummaryRequiresClaims(t *testing.T) {
	repo, store := dashboardFixture()
	svc := NewDashboardService(repo, store, nil, nil, nil)

	_, err := svc.Summary(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestDashboardSummaryRepositoryError(t *testing.T) {
	_, store := dashboardFixture()
	svc := NewDashboardService(&fakeSummaryRepo{err: errors.New("timeout")}, store, nil, nil, nil)

	_, err := svc.Summary(context.Background(), &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
