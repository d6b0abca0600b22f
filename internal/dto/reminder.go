package dto

import "time"

// CreateReminderRequest queues a reminder for a booking or an invoice.
type CreateReminderRequest struct {
	RelatedType     string `json:"relatedType" binding:"required"`
	RelatedID       string `json:"relatedId" binding:"required"`
	RecipientUserID string `json:"recipientUserId" binding:"required"`
	Channel         string `json:"channel"`
	ReminderType    string `json:"reminderType" binding:"required"`
	Message         string `json:"message" binding:"required"`
	SendOn          string `json:"sendOn" binding:"required"`
}

// ReminderSweepResult summarises one pass over due reminders.
type ReminderSweepResult struct {
	Due       int       `json:"due"`
	Processed int       `json:"processed"`
	Delivered int       `json:"delivered"`
	Fallback  int       `json:"fallback"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Today     string    `json:"today"`
	RanAt     time.Time `json:"ranAt"`
}
