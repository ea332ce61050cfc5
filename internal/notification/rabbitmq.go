package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EmailJob is the JSON payload put on the queue for an email worker.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// JSONPublisher publishes a JSON-encoded body.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

const (
	rabbitDialTimeout = 5 * time.Second
	rabbitAppID       = "auth-service"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher sends JSON messages to one durable queue through the default exchange.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    amqpChannel
	queue string
	now   func() time.Time
}

// NewRabbitPublisher dials url and declares queue as durable.
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(rabbitAppID)
	conn, err := amqp.DialConfig(url, amqp.Config{
		Properties: props,
		Dial:       amqp.DefaultDial(rabbitDialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue, now: time.Now}, nil
}

// Close shuts the channel before the connection.
func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishJSON marshals body and publishes it as a persistent message.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        rabbitAppID,
		Timestamp:    p.now().UTC(),
		Body:         b,
	})
	if err != nil {
		return fmt.Errorf("publish to %q: %w", p.queue, err)
	}
	return nil
}

// QueueNotifier hands reset emails to an asynchronous email worker.
type QueueNotifier struct {
	publisher JSONPublisher
}

// NewQueueNotifier builds a QueueNotifier.
func NewQueueNotifier(publisher JSONPublisher) *QueueNotifier {
	return &QueueNotifier{publisher: publisher}
}

func (n *QueueNotifier) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	job := EmailJob{
		To:       msg.To,
		Subject:  resetSubject,
		Text:     resetText(msg),
		Template: "forgot_password",
		Data: map[string]any{
			"link":       msg.Link,
			"expires_at": msg.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}
	if err := n.publisher.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("enqueue reset email: %w", err)
	}
	return nil
}
