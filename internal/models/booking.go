package models

import "time"

// DateLayout is the wire and cache key format for calendar dates.
const DateLayout = "2006-01-02"

// EventType classifies what a booking is for.
type EventType string

const (
	EventTypeLesson     EventType = "lesson"
	EventTypeExam       EventType = "exam"
	EventTypeAssessment EventType = "assessment"
)

// BookingStatus tracks a booking's lifecycle.
type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a reserved time window for one instructor and optionally one vehicle.
type Booking struct {
	ID            string        `db:"id" json:"id"`
	EnrollmentID  string        `db:"enrollment_id" json:"enrollment_id"`
	InstructorID  string        `db:"instructor_id" json:"instructor_id"`
	VehicleID     *string       `db:"vehicle_id" json:"vehicle_id,omitempty"`
	BranchID      *string       `db:"branch_id" json:"branch_id,omitempty"`
	EventType     EventType     `db:"event_type" json:"event_type"`
	ScheduledDate Date          `db:"scheduled_date" json:"scheduled_date"`
	StartTime     TimeOfDay     `db:"start_time" json:"start_time"`
	EndTime       TimeOfDay     `db:"end_time" json:"end_time"`
	Status        BookingStatus `db:"status" json:"status"`
	Topic         *string       `db:"topic" json:"topic,omitempty"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	ReminderSent  bool          `db:"reminder_sent" json:"reminder_sent"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// DateKey returns the booking date as YYYY-MM-DD.
func (b Booking) DateKey() string {
	return b.ScheduledDate.Format(DateLayout)
}

// BookingSummary enriches a booking with display names for calendar views.
type BookingSummary struct {
	Booking
	StudentName    string  `db:"student_name" json:"student_name"`
	InstructorName string  `db:"instructor_name" json:"instructor_name"`
	CourseName     string  `db:"course_name" json:"course_name"`
	VehiclePlate   *string `db:"vehicle_plate" json:"vehicle_plate,omitempty"`
}

// Conflict dimensions.
const (
	ConflictDimensionInstructor = "INSTRUCTOR"
	ConflictDimensionVehicle    = "VEHICLE"
)

// BookingConflict describes the existing booking that blocks a candidate.
type BookingConflict struct {
	BookingID     string    `json:"booking_id"`
	InstructorID  string    `json:"instructor_id"`
	VehicleID     *string   `json:"vehicle_id,omitempty"`
	ScheduledDate string    `json:"scheduled_date"`
	StartTime     TimeOfDay `json:"start_time"`
	EndTime       TimeOfDay `json:"end_time"`
	Dimension     string    `json:"dimension"`
}

// BookingConflictError is returned when a candidate overlaps an existing booking.
type BookingConflictError struct {
	Message  string          `json:"message"`
	Conflict BookingConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
