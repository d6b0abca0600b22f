package models

import (
	"fmt"
	"time"
)

// ReminderChannel is the preferred delivery medium.
type ReminderChannel string

const (
	ChannelSMS   ReminderChannel = "sms"
	ChannelEmail ReminderChannel = "email"
	ChannelInApp ReminderChannel = "in-app"
)

// ParseChannel validates a channel name.
func ParseChannel(raw string) (ReminderChannel, error) {
	switch ch := ReminderChannel(raw); ch {
	case ChannelSMS, ChannelEmail, ChannelInApp:
		return ch, nil
	default:
		return "", fmt.Errorf("unknown reminder channel %q", raw)
	}
}

// ReminderStatus is pending until the dispatcher claims it; sent is terminal.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
)

// RelatedType names the entity kind a reminder was raised for.
type RelatedType string

const (
	RelatedTypeBooking RelatedType = "booking"
	RelatedTypeInvoice RelatedType = "invoice"
)

// RelatedRef points at the entity that triggered a reminder.
// Implementations are BookingRef and InvoiceRef.
type RelatedRef interface {
	RelatedType() RelatedType
	RelatedID() string
}

// BookingRef references a booking.
type BookingRef struct{ ID string }

// RelatedType implements RelatedRef.
func (r BookingRef) RelatedType() RelatedType { return RelatedTypeBooking }

// RelatedID implements RelatedRef.
func (r BookingRef) RelatedID() string { return r.ID }

// InvoiceRef references an invoice issued outside this service.
type InvoiceRef struct{ ID string }

// RelatedType implements RelatedRef.
func (r InvoiceRef) RelatedType() RelatedType { return RelatedTypeInvoice }

// RelatedID implements RelatedRef.
func (r InvoiceRef) RelatedID() string { return r.ID }

// NewRelatedRef rebuilds a reference from its persisted columns.
func NewRelatedRef(kind RelatedType, id string) (RelatedRef, error) {
	switch kind {
	case RelatedTypeBooking:
		return BookingRef{ID: id}, nil
	case RelatedTypeInvoice:
		return InvoiceRef{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown related type %q", kind)
	}
}

// Reminder is a deferred one-shot notification.
type Reminder struct {
	ID              string          `db:"id" json:"id"`
	RelatedType     RelatedType     `db:"related_type" json:"related_type"`
	RelatedID       string          `db:"related_id" json:"related_id"`
	RecipientUserID string          `db:"recipient_user_id" json:"recipient_user_id"`
	Channel         ReminderChannel `db:"channel" json:"channel"`
	ReminderType    string          `db:"reminder_type" json:"reminder_type"`
	Message         string          `db:"message" json:"message"`
	SendOn          Date            `db:"send_on" json:"send_on"`
	Status          ReminderStatus  `db:"status" json:"status"`
	SentAt          *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Ref returns the typed related reference.
func (r Reminder) Ref() (RelatedRef, error) {
	return NewRelatedRef(r.RelatedType, r.RelatedID)
}

// SetRef stores a typed reference into the persisted columns.
func (r *Reminder) SetRef(ref RelatedRef) {
	r.RelatedType = ref.RelatedType()
	r.RelatedID = ref.RelatedID()
}

// DeliveryOutcome reports what a dispatch attempt did.
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeFallback  DeliveryOutcome = "fallback"
	OutcomeSkipped   DeliveryOutcome = "skipped"
)

// DeliveryFailure records why a channel could not deliver. It never leaves the dispatcher.
type DeliveryFailure struct {
	Channel ReminderChannel
	Reason  string
	Err     error
}

func (e *DeliveryFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s delivery failed: %s: %v", e.Channel, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %s", e.Channel, e.Reason)
}

func (e *DeliveryFailure) Unwrap() error { return e.Err }
