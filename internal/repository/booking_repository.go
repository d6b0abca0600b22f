package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drivingschool-api/internal/models"
)

const bookingColumns = `id, enrollment_id, instructor_id, vehicle_id, branch_id, event_type, scheduled_date, start_time, end_time, status, topic, notes, reminder_sent, created_at, updated_at`

const summaryColumns = `b.id, b.enrollment_id, b.instructor_id, b.vehicle_id, b.branch_id, b.event_type, b.scheduled_date, b.start_time, b.end_time, b.status, b.topic, b.notes, b.reminder_sent, b.created_at, b.updated_at,
	COALESCE(s.full_name, '') AS student_name, COALESCE(i.full_name, '') AS instructor_name, COALESCE(c.name, '') AS course_name, v.plate_number AS vehicle_plate`

const summaryJoins = `FROM bookings b
	LEFT JOIN enrollments e ON e.id = b.enrollment_id
	LEFT JOIN students s ON s.id = e.student_id
	LEFT JOIN courses c ON c.id = e.course_id
	LEFT JOIN instructors i ON i.id = b.instructor_id
	LEFT JOIN vehicles v ON v.id = b.vehicle_id`

// BookingStore is the slice of booking persistence available inside a resource lock.
type BookingStore interface {
	ListForResources(ctx context.Context, date time.Time, instructorID string, vehicleID *string) ([]models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
}

// BookingFilter narrows summary listings.
type BookingFilter struct {
	From          time.Time
	To            time.Time
	InstructorID  string
	StudentUserID string
	Status        models.BookingStatus
}

// BookingRepository persists bookings.
type BookingRepository struct {
	db *sqlx.DB
	bookingQueries
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db, bookingQueries: bookingQueries{ext: db}}
}

// ResourceLockKey names the serialization point for one resource on one date.
func ResourceLockKey(kind, id string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", kind, id, date.Format(models.DateLayout))
}

// WithResourceLock runs fn inside a transaction holding a Postgres advisory lock
// per key. Writers for the same instructor or vehicle on the same date are
// serialized, so the conflict read and the write inside fn are atomic with
// respect to each other. Keys are locked in sorted order.
func (r *BookingRepository) WithResourceLock(ctx context.Context, keys []string, fn func(store BookingStore) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, key := range sorted {
		if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("acquire booking lock %s: %w", key, err)
		}
	}

	if err = fn(bookingQueries{ext: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking transaction: %w", err)
	}
	return nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus changes only the lifecycle status of a booking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("booking status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSummaries returns bookings in [From, To] joined with display names,
// ordered by date then start time.
func (r *BookingRepository) ListSummaries(ctx context.Context, filter BookingFilter) ([]models.BookingSummary, error) {
	conditions := []string{"b.scheduled_date BETWEEN $1 AND $2"}
	args := []interface{}{filter.From.Format(models.DateLayout), filter.To.Format(models.DateLayout)}

	if filter.InstructorID != "" {
		args = append(args, filter.InstructorID)
		conditions = append(conditions, fmt.Sprintf("b.instructor_id = $%d", len(args)))
	}
	if filter.StudentUserID != "" {
		args = append(args, filter.StudentUserID)
		conditions = append(conditions, fmt.Sprintf("s.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY b.scheduled_date ASC, b.start_time ASC",
		summaryColumns, summaryJoins, strings.Join(conditions, " AND "))

	var summaries []models.BookingSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("list booking summaries: %w", err)
	}
	return summaries, nil
}

// bookingQueries runs against either the pool or an open transaction.
type bookingQueries struct {
	ext sqlx.ExtContext
}

// ListForResources returns the bookings on date held by the instructor or, when
// vehicleID is set, the vehicle. Status is not filtered.
func (q bookingQueries) ListForResources(ctx context.Context, date time.Time, instructorID string, vehicleID *string) ([]models.Booking, error) {
	args := []interface{}{date.Format(models.DateLayout), instructorID}
	resource := "instructor_id = $2"
	if vehicleID != nil && *vehicleID != "" {
		args = append(args, *vehicleID)
		resource = "(instructor_id = $2 OR vehicle_id = $3)"
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE scheduled_date = $1 AND %s ORDER BY start_time ASC`, bookingColumns, resource)

	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, q.ext, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings for resources: %w", err)
	}
	return bookings, nil
}

// Create stores a new booking record.
func (q bookingQueries) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusScheduled
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, enrollment_id, instructor_id, vehicle_id, branch_id, event_type, scheduled_date, start_time, end_time, status, topic, notes, reminder_sent, created_at, updated_at) VALUES (:id, :enrollment_id, :instructor_id, :vehicle_id, :branch_id, :event_type, :scheduled_date, :start_time, :end_time, :status, :topic, :notes, :reminder_sent, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q.ext, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a booking.
func (q bookingQueries) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET enrollment_id = :enrollment_id, instructor_id = :instructor_id, vehicle_id = :vehicle_id, branch_id = :branch_id, event_type = :event_type, scheduled_date = :scheduled_date, start_time = :start_time, end_time = :end_time, status = :status, topic = :topic, notes = :notes, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, q.ext, query, booking)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
