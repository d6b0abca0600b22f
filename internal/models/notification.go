package models

import "time"

// NotificationLevel grades in-app notifications.
type NotificationLevel string

const (
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelWarning NotificationLevel = "warning"
)

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        string            `db:"id" json:"id"`
	UserID    string            `db:"user_id" json:"user_id"`
	Title     string            `db:"title" json:"title"`
	Message   string            `db:"message" json:"message"`
	Level     NotificationLevel `db:"level" json:"level"`
	IsRead    bool              `db:"is_read" json:"is_read"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}
