package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

type dispatcherFixture struct {
	dispatcher    *ReminderDispatcher
	store         *fakeReminderStore
	notifications *fakeNotifications
	transport     *fakeTransport
}

func newDispatcherFixture(timeout time.Duration, reminders ...models.Reminder) *dispatcherFixture {
	store := newFakeReminderStore(reminders...)
	directory := &fakeDirectory{recipients: map[string]models.Recipient{
		"user-full":    {ID: "user-full", FullName: "Siti", Email: strPtr("siti@example.com"), Phone: strPtr("+628123")},
		"user-nomail":  {ID: "user-nomail", FullName: "Budi"},
		"user-blankph": {ID: "user-blankph", FullName: "Ani", Phone: strPtr("  ")},
	}}
	notifications := &fakeNotifications{}
	transport := &fakeTransport{}
	return &dispatcherFixture{
		dispatcher:    NewReminderDispatcher(store, directory, notifications, transport, timeout, NewMetricsService(), nil),
		store:         store,
		notifications: notifications,
		transport:     transport,
	}
}

func pendingReminder(id, user string, channel models.ReminderChannel, sendOn string) models.Reminder {
	r := models.Reminder{
		ID:              id,
		RecipientUserID: user,
		Channel:         channel,
		ReminderType:    LessonReminderType,
		Message:         "Lesson booked for 2025-03-05 at 09:00",
		SendOn:          models.NewDate(day(sendOn)),
		Status:          models.ReminderStatusPending,
	}
	r.SetRef(models.BookingRef{ID: "b-" + id})
	return r
}

func TestDispatchInApp(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelInApp, "2025-03-04")
	f := newDispatcherFixture(time.Second, r)

	outcome, err := f.dispatcher.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDelivered, outcome)
	assert.Equal(t, models.ReminderStatusSent, f.store.status("r1"))

	notes := f.notifications.list()
	require.Len(t, notes, 1)
	assert.Equal(t, "user-full", notes[0].UserID)
	assert.Equal(t, "Lesson reminder", notes[0].Title)
	assert.Equal(t, models.NotificationLevelInfo, notes[0].Level)
	assert.Empty(t, f.transport.messages())
}

func TestDispatchEmailDelivered(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelEmail, "2025-03-04")
	f := newDispatcherFixture(time.Second, r)

	outcome, err := f.dispatcher.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDelivered, outcome)

	sent := f.transport.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "siti@example.com", sent[0].To)
	assert.Equal(t, "email", sent[0].Channel)
	assert.Equal(t, "r1", sent[0].ReminderID)
	assert.Empty(t, f.notifications.list())
}

func TestDispatchSMSDelivered(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelSMS, "2025-03-04")
	f := newDispatcherFixture(time.Second, r)

	outcome, err := f.dispatcher.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDelivered, outcome)
	require.Len(t, f.transport.messages(), 1)
	assert.Equal(t, "+628123", f.transport.messages()[0].To)
}

func TestDispatchFallsBackToInApp(t *testing.T) {
	cases := []struct {
		name    string
		user    string
		channel models.ReminderChannel
		prepare func(f *dispatcherFixture)
	}{
		{name: "email without address", user: "user-nomail", channel: models.ChannelEmail},
		{name: "sms with blank phone", user: "user-blankph", channel: models.ChannelSMS},
		{name: "transport error", user: "user-full", channel: models.ChannelEmail, prepare: func(f *dispatcherFixture) {
			f.transport.err = errors.New("smtp 550")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := pendingReminder("r1", tc.user, tc.channel, "2025-03-04")
			f := newDispatcherFixture(time.Second, r)
			if tc.prepare != nil {
				tc.prepare(f)
			}

			outcome, err := f.dispatcher.Dispatch(context.Background(), r)
			require.NoError(t, err, "delivery failures never surface")
			assert.Equal(t, models.OutcomeFallback, outcome)
			assert.Equal(t, models.ReminderStatusSent, f.store.status("r1"))

			notes := f.notifications.list()
			require.Len(t, notes, 1)
			assert.Equal(t, tc.user, notes[0].UserID)
			assert.Equal(t, models.NotificationLevelWarning, notes[0].Level)
			assert.Equal(t, r.Message, notes[0].Message)
		})
	}
}

func TestDispatchTimeoutCountsAsFailure(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelEmail, "2025-03-04")
	f := newDispatcherFixture(20*time.Millisecond, r)
	f.transport.delay = time.Second

	start := time.Now()
	outcome, err := f.dispatcher.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFallback, outcome)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, f.notifications.list(), 1)
	assert.Equal(t, models.NotificationLevelWarning, f.notifications.list()[0].Level)
}

func TestDispatchUnknownRecipientStillNotifies(t *testing.T) {
	r := pendingReminder("r1", "ghost", models.ChannelEmail, "2025-03-04")
	f := newDispatcherFixture(time.Second, r)

	outcome, err := f.dispatcher.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFallback, outcome)
	assert.Equal(t, models.ReminderStatusSent, f.store.status("r1"))

	notes := f.notifications.list()
	require.Len(t, notes, 1)
	assert.Equal(t, "ghost", notes[0].UserID)
	assert.Empty(t, f.transport.messages())
}

func TestDispatchSkipsClaimedReminder(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelInApp, "2025-03-04")
	r.Status = models.ReminderStatusSent
	f := newDispatcherFixture(time.Second, r)

	outcome, err := f.dispatcher.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSkipped, outcome)
	assert.Empty(t, f.notifications.list())
}

func TestDispatchClaimErrorIsReturned(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelInApp, "2025-03-04")
	f := newDispatcherFixture(time.Second, r)
	f.store.claimErr = errors.New("deadlock detected")

	_, err := f.dispatcher.Dispatch(context.Background(), r)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, f.notifications.list())
}

func TestDispatchConcurrentDeliversOnce(t *testing.T) {
	r := pendingReminder("r1", "user-full", models.ChannelEmail, "2025-03-04")
	f := newDispatcherFixture(time.Second, r)

	var wg sync.WaitGroup
	outcomes := make(chan models.DeliveryOutcome, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.dispatcher.Dispatch(context.Background(), r)
			assert.NoError(t, err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	delivered := 0
	for o := range outcomes {
		if o == models.OutcomeDelivered {
			delivered++
		} else {
			assert.Equal(t, models.OutcomeSkipped, o)
		}
	}
	assert.Equal(t, 1, delivered)
	assert.Len(t, f.transport.messages(), 1)
}

func TestReminderTitle(t *testing.T) {
	assert.Equal(t, "Lesson reminder", reminderTitle("lesson_reminder"))
	assert.Equal(t, "Invoice due", reminderTitle("invoice_due"))
	assert.Equal(t, "Reminder", reminderTitle(""))
}
