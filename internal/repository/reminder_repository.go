package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drivingschool-api/internal/models"
)

const reminderColumns = `id, related_type, related_id, recipient_user_id, channel, reminder_type, message, send_on, status, sent_at, created_at, updated_at`

// ReminderFilter narrows reminder listings.
type ReminderFilter struct {
	Status          models.ReminderStatus
	RecipientUserID string
	RelatedType     models.RelatedType
	RelatedID       string
	Limit           int
}

// ReminderRepository persists reminders. Rows only move pending -> sent and are never deleted.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs the repository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a pending reminder.
func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	reminder.Status = models.ReminderStatusPending
	now := time.Now().UTC()
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = now
	}
	reminder.UpdatedAt = now

	const query = `INSERT INTO reminders (id, related_type, related_id, recipient_user_id, channel, reminder_type, message, send_on, status, sent_at, created_at, updated_at)
	VALUES (:id, :related_type, :related_id, :recipient_user_id, :channel, :reminder_type, :message, :send_on, :status, :sent_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reminder); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// FindByID loads a reminder.
func (r *ReminderRepository) FindByID(ctx context.Context, id string) (*models.Reminder, error) {
	query := fmt.Sprintf(`SELECT %s FROM reminders WHERE id = $1`, reminderColumns)
	var reminder models.Reminder
	if err := r.db.GetContext(ctx, &reminder, query, id); err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ListDue returns pending reminders whose send_on is on or before today.
func (r *ReminderRepository) ListDue(ctx context.Context, today time.Time, limit int) ([]models.Reminder, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM reminders WHERE status = $1 AND send_on <= $2 ORDER BY send_on ASC, created_at ASC LIMIT %d`, reminderColumns, limit)
	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, models.ReminderStatusPending, today.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}

// Claim atomically moves a pending reminder to sent. It reports false when
// another caller already claimed it.
func (r *ReminderRepository) Claim(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE reminders SET status = $2, sent_at = $3, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.ReminderStatusSent, at, models.ReminderStatusPending)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check reminder claim rows: %w", err)
	}
	return affected == 1, nil
}

// CountPending counts pending reminders, optionally for one recipient.
func (r *ReminderRepository) CountPending(ctx context.Context, recipientUserID string) (int, error) {
	query := `SELECT COUNT(*) FROM reminders WHERE status = $1`
	args := []interface{}{models.ReminderStatusPending}
	if recipientUserID != "" {
		query += ` AND recipient_user_id = $2`
		args = append(args, recipientUserID)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count pending reminders: %w", err)
	}
	return total, nil
}

// List returns reminders matching the filter, newest first.
func (r *ReminderRepository) List(ctx context.Context, filter ReminderFilter) ([]models.Reminder, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RecipientUserID != "" {
		args = append(args, filter.RecipientUserID)
		conditions = append(conditions, fmt.Sprintf("recipient_user_id = $%d", len(args)))
	}
	if filter.RelatedType != "" {
		args = append(args, filter.RelatedType)
		conditions = append(conditions, fmt.Sprintf("related_type = $%d", len(args)))
	}
	if filter.RelatedID != "" {
		args = append(args, filter.RelatedID)
		conditions = append(conditions, fmt.Sprintf("related_id = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM reminders%s ORDER BY created_at DESC LIMIT %d", reminderColumns, where, limit)

	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, args...); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}
