package dto

import "github.com/noah-isme/drivingschool-api/internal/models"

// DashboardSummary is the landing payload for staff, instructors and students.
type DashboardSummary struct {
	Date             string                  `json:"date"`
	Scope            string                  `json:"scope"`
	Today            []models.BookingSummary `json:"today"`
	UpcomingCount    int                     `json:"upcomingCount"`
	PendingReminders int                     `json:"pendingReminders"`
}
