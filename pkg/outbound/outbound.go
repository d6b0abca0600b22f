package outbound

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/pkg/config"
)

// Message is an email or SMS handed to an external mailer.
type Message struct {
	ReminderID   string `json:"reminder_id"`
	ReminderType string `json:"reminder_type"`
	Channel      string `json:"channel"`
	To           string `json:"to"`
	Subject      string `json:"subject,omitempty"`
	Body         string `json:"body"`
}

// RoutingKey is the topic a message is published under, e.g. outbound.email.
func RoutingKey(channel string) string {
	return "outbound." + channel
}

// Transport delivers a message or reports why it could not.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// New builds the transport selected by cfg.Transport.
func New(cfg config.OutboundConfig, logger *zap.Logger) (Transport, error) {
	switch cfg.Transport {
	case "", config.OutboundTransportLog:
		return NewLogTransport(logger), nil
	case config.OutboundTransportAMQP:
		return DialAMQP(cfg.AMQPURL, cfg.Exchange)
	default:
		return nil, fmt.Errorf("unknown outbound transport %q", cfg.Transport)
	}
}

// LogTransport writes messages to the log instead of sending them. Used in
// development and wherever no mailer is attached.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport constructs a LogTransport.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger}
}

// Send logs msg.
func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.Info("outbound message",
		zap.String("reminder_id", msg.ReminderID),
		zap.String("channel", msg.Channel),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Close implements Transport.
func (t *LogTransport) Close() error { return nil }
