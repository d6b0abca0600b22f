package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	"github.com/noah-isme/drivingschool-api/pkg/outbound"
)

func day(raw string) time.Time {
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

// fakeBookingRepo serializes every locked section behind one mutex and only
// applies staged writes when fn succeeds.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[string]models.Booking
	seq       int
	lockCalls [][]string
	listErr   error
	createErr error
}

func newFakeBookingRepo(existing ...models.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: map[string]models.Booking{}}
	for _, b := range existing {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (f *fakeBookingRepo) WithResourceLock(ctx context.Context, keys []string, fn func(store repository.BookingStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls = append(f.lockCalls, append([]string(nil), keys...))

	staged := make(map[string]models.Booking, len(f.bookings))
	for id, b := range f.bookings {
		staged[id] = b
	}
	tx := &fakeBookingTx{repo: f, bookings: staged}
	if err := fn(tx); err != nil {
		return err
	}
	f.bookings = staged
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	f.bookings[id] = b
	return nil
}

func (f *fakeBookingRepo) ListForResources(ctx context.Context, date time.Time, instructorID string, vehicleID *string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return listForResources(f.bookings, date, instructorID, vehicleID), f.listErr
}

func (f *fakeBookingRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

func listForResources(all map[string]models.Booking, date time.Time, instructorID string, vehicleID *string) []models.Booking {
	var out []models.Booking
	for _, b := range all {
		if b.DateKey() != date.Format(models.DateLayout) {
			continue
		}
		sameVehicle := vehicleID != nil && b.VehicleID != nil && *b.VehicleID == *vehicleID
		if b.InstructorID == instructorID || sameVehicle {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

type fakeBookingTx struct {
	repo     *fakeBookingRepo
	bookings map[string]models.Booking
}

func (t *fakeBookingTx) ListForResources(ctx context.Context, date time.Time, instructorID string, vehicleID *string) ([]models.Booking, error) {
	if t.repo.listErr != nil {
		return nil, t.repo.listErr
	}
	return listForResources(t.bookings, date, instructorID, vehicleID), nil
}

func (t *fakeBookingTx) Create(ctx context.Context, booking *models.Booking) error {
	if t.repo.createErr != nil {
		return t.repo.createErr
	}
	t.repo.seq++
	if booking.ID == "" {
		booking.ID = fmt.Sprintf("booking-%d", t.repo.seq)
	}
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	t.bookings[booking.ID] = *booking
	return nil
}

func (t *fakeBookingTx) Update(ctx context.Context, booking *models.Booking) error {
	if _, ok := t.bookings[booking.ID]; !ok {
		return sql.ErrNoRows
	}
	booking.UpdatedAt = time.Now().UTC()
	t.bookings[booking.ID] = *booking
	return nil
}

type fakeSummaryRepo struct {
	summaries []models.BookingSummary
	filters   []repository.BookingFilter
	err       error
}

func (f *fakeSummaryRepo) ListSummaries(ctx context.Context, filter repository.BookingFilter) ([]models.BookingSummary, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.BookingSummary
	for _, s := range f.summaries {
		if s.ScheduledDate.Before(filter.From) || s.ScheduledDate.After(filter.To) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeReminderStore struct {
	mu         sync.Mutex
	reminders  map[string]*models.Reminder
	seq        int
	claimErr   error
	createErr  error
	failClaims map[string]bool
}

func newFakeReminderStore(existing ...models.Reminder) *fakeReminderStore {
	store := &fakeReminderStore{reminders: map[string]*models.Reminder{}}
	for i := range existing {
		r := existing[i]
		store.reminders[r.ID] = &r
	}
	return store
}

func (f *fakeReminderStore) Create(ctx context.Context, reminder *models.Reminder) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if reminder.ID == "" {
		reminder.ID = fmt.Sprintf("reminder-%d", f.seq)
	}
	reminder.Status = models.ReminderStatusPending
	reminder.CreatedAt = time.Now().UTC()
	stored := *reminder
	f.reminders[reminder.ID] = &stored
	return nil
}

func (f *fakeReminderStore) ListDue(ctx context.Context, today time.Time, limit int) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reminder
	for _, r := range f.reminders {
		if r.Status == models.ReminderStatusPending && !r.SendOn.After(today) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReminderStore) FindByID(ctx context.Context, id string) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *r
	return &found, nil
}

func (f *fakeReminderStore) List(ctx context.Context, filter repository.ReminderFilter) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reminder
	for _, r := range f.reminders {
		if filter.RecipientUserID != "" && r.RecipientUserID != filter.RecipientUserID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReminderStore) Claim(ctx context.Context, id string, at time.Time) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failClaims[id] {
		return false, fmt.Errorf("claim %s: deadlock detected", id)
	}
	r, ok := f.reminders[id]
	if !ok || r.Status != models.ReminderStatusPending {
		return false, nil
	}
	r.Status = models.ReminderStatusSent
	r.SentAt = &at
	return true, nil
}

func (f *fakeReminderStore) CountPending(ctx context.Context, recipientUserID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range f.reminders {
		if r.Status == models.ReminderStatusPending && (recipientUserID == "" || r.RecipientUserID == recipientUserID) {
			total++
		}
	}
	return total, nil
}

func (f *fakeReminderStore) status(id string) models.ReminderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reminders[id]; ok {
		return r.Status
	}
	return ""
}

func (f *fakeReminderStore) all() []models.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Reminder, 0, len(f.reminders))
	for _, r := range f.reminders {
		out = append(out, *r)
	}
	return out
}

type fakeDirectory struct {
	contacts   map[string]models.EnrollmentContact
	recipients map[string]models.Recipient
}

func (f *fakeDirectory) FindEnrollmentContact(ctx context.Context, enrollmentID string) (*models.EnrollmentContact, error) {
	c, ok := f.contacts[enrollmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (f *fakeDirectory) FindRecipient(ctx context.Context, userID string) (*models.Recipient, error) {
	r, ok := f.recipients[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	items []models.Notification
}

func (f *fakeNotifications) Create(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.Level == "" {
		n.Level = models.NotificationLevelInfo
	}
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) list() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.items...)
}

type fakeTransport struct {
	mu    sync.Mutex
	sent  []outbound.Message
	err   error
	delay time.Duration
}

func (f *fakeTransport) Send(ctx context.Context, msg outbound.Message) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) messages() []outbound.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]outbound.Message(nil), f.sent...)
}

type fakeCalendarCache struct {
	entries     map[string][]models.BookingSummary
	invalidated []string
	gets        int
}

func newFakeCalendarCache() *fakeCalendarCache {
	return &fakeCalendarCache{entries: map[string][]models.BookingSummary{}}
}

func (f *fakeCalendarCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	f.gets++
	v, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*[]models.BookingSummary)) = append([]models.BookingSummary(nil), v...)
	return true, nil
}

func (f *fakeCalendarCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.entries[key] = append([]models.BookingSummary(nil), value.([]models.BookingSummary)...)
	return nil
}

func (f *fakeCalendarCache) Invalidate(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.entries, k)
		f.invalidated = append(f.invalidated, k)
	}
	return nil
}

type recordingInvalidator struct {
	months []string
}

func (r *recordingInvalidator) InvalidateMonth(ctx context.Context, date time.Time) {
	r.months = append(r.months, date.Format("2006-01"))
}

func fixedClock(raw string) func() time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
