package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drivingschool-api/internal/models"
)

// DirectoryRepository reads people records owned by other modules.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindEnrollmentContact resolves the student account behind an enrollment.
// StudentUserID is empty for students without a login.
func (r *DirectoryRepository) FindEnrollmentContact(ctx context.Context, enrollmentID string) (*models.EnrollmentContact, error) {
	const query = `SELECT e.id AS enrollment_id, s.id AS student_id, COALESCE(s.user_id::text, '') AS student_user_id, s.full_name AS student_name, COALESCE(c.name, '') AS course_name
	FROM enrollments e
	JOIN students s ON s.id = e.student_id
	LEFT JOIN courses c ON c.id = e.course_id
	WHERE e.id = $1`
	var contact models.EnrollmentContact
	if err := r.db.GetContext(ctx, &contact, query, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment contact: %w", err)
	}
	return &contact, nil
}

// FindRecipient loads the contact details of a user.
func (r *DirectoryRepository) FindRecipient(ctx context.Context, userID string) (*models.Recipient, error) {
	const query = `SELECT id, full_name, NULLIF(email, '') AS email, NULLIF(phone, '') AS phone FROM users WHERE id = $1 LIMIT 1`
	var recipient models.Recipient
	if err := r.db.GetContext(ctx, &recipient, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	return &recipient, nil
}
