package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/outbound"
)

type reminderClaimer interface {
	Claim(ctx context.Context, id string, at time.Time) (bool, error)
}

type recipientDirectory interface {
	FindRecipient(ctx context.Context, userID string) (*models.Recipient, error)
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type outboundSender interface {
	Send(ctx context.Context, msg outbound.Message) error
}

// ReminderDispatcher delivers a single reminder. A reminder is claimed
// (pending -> sent) before any delivery is attempted, so two concurrent
// dispatches of the same reminder deliver at most once.
type ReminderDispatcher struct {
	claims        reminderClaimer
	users         recipientDirectory
	notifications notificationWriter
	transport     outboundSender
	timeout       time.Duration
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewReminderDispatcher constructs the dispatcher. timeout bounds each outbound send.
func NewReminderDispatcher(claims reminderClaimer, users recipientDirectory, notifications notificationWriter, transport outboundSender, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *ReminderDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderDispatcher{
		claims:        claims,
		users:         users,
		notifications: notifications,
		transport:     transport,
		timeout:       timeout,
		metrics:       metrics,
		logger:        logger,
	}
}

// Dispatch claims and delivers reminder. Delivery problems never surface as
// errors; they end in an in-app fallback. The only error is a failed claim.
func (d *ReminderDispatcher) Dispatch(ctx context.Context, reminder models.Reminder) (models.DeliveryOutcome, error) {
	log := d.logger.With(zap.String("reminder_id", reminder.ID), zap.String("channel", string(reminder.Channel)))

	claimed, err := d.claims.Claim(ctx, reminder.ID, time.Now().UTC())
	if err != nil {
		return "", appErrors.Internal(err, "failed to claim reminder")
	}
	if !claimed {
		log.Debug("reminder already claimed")
		d.metrics.RecordReminderOutcome(reminder.Channel, models.OutcomeSkipped)
		return models.OutcomeSkipped, nil
	}

	outcome := d.deliver(ctx, reminder, log)
	d.metrics.RecordReminderOutcome(reminder.Channel, outcome)
	return outcome, nil
}

func (d *ReminderDispatcher) deliver(ctx context.Context, reminder models.Reminder, log *zap.Logger) models.DeliveryOutcome {
	title := reminderTitle(reminder.ReminderType)

	recipient, err := d.users.FindRecipient(ctx, reminder.RecipientUserID)
	if err != nil {
		log.Warn("reminder recipient not resolved", zap.String("recipient_user_id", reminder.RecipientUserID), zap.Error(err))
		d.notify(ctx, log, reminder.RecipientUserID, title, reminder.Message, models.NotificationLevelInfo)
		return models.OutcomeFallback
	}

	var failure *models.DeliveryFailure
	switch reminder.Channel {
	case models.ChannelEmail:
		failure = d.sendOutbound(ctx, reminder, title, recipient.Email)
	case models.ChannelSMS:
		failure = d.sendOutbound(ctx, reminder, title, recipient.Phone)
	default:
		d.notify(ctx, log, recipient.ID, title, reminder.Message, models.NotificationLevelInfo)
		return models.OutcomeDelivered
	}

	if failure == nil {
		return models.OutcomeDelivered
	}
	log.Warn("reminder delivery fell back to in-app", zap.Error(failure))
	d.notify(ctx, log, recipient.ID, title, reminder.Message, models.NotificationLevelWarning)
	return models.OutcomeFallback
}

func (d *ReminderDispatcher) sendOutbound(ctx context.Context, reminder models.Reminder, subject string, address *string) *models.DeliveryFailure {
	if address == nil || strings.TrimSpace(*address) == "" {
		return &models.DeliveryFailure{Channel: reminder.Channel, Reason: "no address on file"}
	}
	if d.transport == nil {
		return &models.DeliveryFailure{Channel: reminder.Channel, Reason: "no outbound transport"}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.transport.Send(sendCtx, outbound.Message{
			ReminderID:   reminder.ID,
			ReminderType: reminder.ReminderType,
			Channel:      string(reminder.Channel),
			To:           strings.TrimSpace(*address),
			Subject:      subject,
			Body:         reminder.Message,
		})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return &models.DeliveryFailure{Channel: reminder.Channel, Reason: "transport error", Err: err}
		}
		return nil
	case <-sendCtx.Done():
		return &models.DeliveryFailure{Channel: reminder.Channel, Reason: "timed out", Err: sendCtx.Err()}
	}
}

func (d *ReminderDispatcher) notify(ctx context.Context, log *zap.Logger, userID, title, message string, level models.NotificationLevel) {
	n := &models.Notification{UserID: userID, Title: title, Message: message, Level: level}
	if err := d.notifications.Create(ctx, n); err != nil {
		log.Error("write in-app notification", zap.String("user_id", userID), zap.Error(err))
	}
}

// reminderTitle turns a reminder type label such as lesson_reminder into "Lesson reminder".
func reminderTitle(reminderType string) string {
	label := strings.TrimSpace(strings.ReplaceAll(reminderType, "_", " "))
	if label == "" {
		return "Reminder"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
