package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	"github.com/noah-isme/drivingschool-api/internal/service"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

type fakeReminderService struct {
	queued     *service.ReminderRequest
	reminder   *models.Reminder
	reminders  []models.Reminder
	sweep      *dto.ReminderSweepResult
	err        error
	lastFilter repository.ReminderFilter
}

func (f *fakeReminderService) Queue(_ context.Context, req service.ReminderRequest) (*models.Reminder, error) {
	f.queued = &req
	return f.reminder, f.err
}

func (f *fakeReminderService) Get(_ context.Context, id string) (*models.Reminder, error) {
	return f.reminder, f.err
}

func (f *fakeReminderService) List(_ context.Context, filter repository.ReminderFilter) ([]models.Reminder, error) {
	f.lastFilter = filter
	return f.reminders, f.err
}

func (f *fakeReminderService) ProcessDue(_ context.Context) (*dto.ReminderSweepResult, error) {
	return f.sweep, f.err
}

func reminderPayload() map[string]string {
	return map[string]string{
		"relatedType":     "invoice",
		"relatedId":       "inv-1",
		"recipientUserId": "user-7",
		"channel":         "EMAIL",
		"reminderType":    "invoice_due",
		"message":         "Invoice INV-1 is due",
		"sendOn":          "2025-03-04",
	}
}

func TestCreateReminder(t *testing.T) {
	svc := &fakeReminderService{reminder: &models.Reminder{
		ID:     "r-1",
		Status: models.ReminderStatusPending,
		SendOn: models.NewDate(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)),
	}}
	c, rec := newTestContext(http.MethodPost, "/reminders", reminderPayload())
	NewReminderHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.queued)
	assert.Equal(t, models.InvoiceRef{ID: "inv-1"}, svc.queued.Ref)
	assert.Equal(t, models.ChannelEmail, svc.queued.Channel)
	assert.Equal(t, "2025-03-04", svc.queued.SendOn.Format(models.DateLayout))
	data := string(decodeEnvelope(t, rec).Data)
	assert.Contains(t, data, `"id":"r-1"`)
	assert.Contains(t, data, `"send_on":"2025-03-04"`)
}

func TestCreateReminderRejectsBadInput(t *testing.T) {
	cases := map[string]func(p map[string]string){
		"unknown related type": func(p map[string]string) { p["relatedType"] = "payment" },
		"unknown channel":      func(p map[string]string) { p["channel"] = "fax" },
		"bad send date":        func(p map[string]string) { p["sendOn"] = "tomorrow" },
		"missing message":      func(p map[string]string) { delete(p, "message") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			payload := reminderPayload()
			mutate(payload)
			svc := &fakeReminderService{}
			c, rec := newTestContext(http.MethodPost, "/reminders", payload)
			NewReminderHandler(svc).Create(c)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.queued)
		})
	}
}

func TestListReminders(t *testing.T) {
	svc := &fakeReminderService{reminders: []models.Reminder{{ID: "r-1"}, {ID: "r-2"}}}
	c, rec := newTestContext(http.MethodGet, "/reminders?status=PENDING&recipientUserId=user-7&limit=10", nil)
	NewReminderHandler(svc).List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ReminderStatusPending, svc.lastFilter.Status)
	assert.Equal(t, "user-7", svc.lastFilter.RecipientUserID)
	assert.Equal(t, 10, svc.lastFilter.Limit)
	assert.Equal(t, float64(2), decodeEnvelope(t, rec).Meta["count"])
}

func TestGetReminderNotFound(t *testing.T) {
	svc := &fakeReminderService{err: appErrors.Clone(appErrors.ErrNotFound, "reminder not found")}
	c, rec := newTestContext(http.MethodGet, "/reminders/nope", nil)
	withParam(c, "id", "nope")
	NewReminderHandler(svc).Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunReminders(t *testing.T) {
	svc := &fakeReminderService{sweep: &dto.ReminderSweepResult{Due: 2, Processed: 2, Delivered: 1, Fallback: 1, Today: "2025-03-04"}}
	c, rec := newTestContext(http.MethodPost, "/reminders/run", nil)
	NewReminderHandler(svc).Run(c)

	require.Equal(t, http.StatusOK, rec.Code)
	data := string(decodeEnvelope(t, rec).Data)
	assert.Contains(t, data, `"processed":2`)
	assert.Contains(t, data, `"today":"2025-03-04"`)
}
