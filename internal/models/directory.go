package models

// Recipient is the contact card the dispatcher delivers to.
type Recipient struct {
	ID       string  `db:"id" json:"id"`
	FullName string  `db:"full_name" json:"full_name"`
	Email    *string `db:"email" json:"email,omitempty"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
}

// EnrollmentContact links an enrollment to the student's login account.
type EnrollmentContact struct {
	EnrollmentID  string `db:"enrollment_id" json:"enrollment_id"`
	StudentID     string `db:"student_id" json:"student_id"`
	StudentUserID string `db:"student_user_id" json:"student_user_id"`
	StudentName   string `db:"student_name" json:"student_name"`
	CourseName    string `db:"course_name" json:"course_name"`
}
