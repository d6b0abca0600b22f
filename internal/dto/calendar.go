package dto

import "github.com/noah-isme/drivingschool-api/internal/models"

// CalendarEvent is one entry of the calendar widget feed.
type CalendarEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Student    string `json:"student"`
	Instructor string `json:"instructor"`
	Status     string `json:"status"`
	Course     string `json:"course"`
}

// CalendarMonth is the management view of one month, keyed by YYYY-MM-DD.
type CalendarMonth struct {
	Year  int                                `json:"year"`
	Month int                                `json:"month"`
	Days  map[string][]models.BookingSummary `json:"days"`
	Total int                                `json:"total"`
}
