package outbound

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPTransport publishes messages to a topic exchange consumed by the mailer.
type AMQPTransport struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// DialAMQP connects and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPTransport{conn: conn, ch: ch, exchange: exchange}, nil
}

// Send publishes msg as persistent JSON under RoutingKey(msg.Channel).
func (t *AMQPTransport) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	err = t.ch.PublishWithContext(ctx, t.exchange, RoutingKey(msg.Channel), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ReminderID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKey(msg.Channel), err)
	}
	return nil
}

// Close releases the channel and connection.
func (t *AMQPTransport) Close() error {
	if t.ch != nil {
		_ = t.ch.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
