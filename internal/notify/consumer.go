// Package notify consumes order-status events from the surrounding CRUD
// system and turns them into system-originated messages to the customer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

const (
	dialAttempts  = 5
	dialBaseDelay = 2 * time.Second
	queueName     = "wabot.order-status"
	routingKey    = "order.status.*"
)

// Envelope is the event schema published by the order system.
type Envelope struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenantId"`
	OrderCode     string            `json:"orderCode"`
	CustomerPhone string            `json:"customerPhone"`
	Status        model.OrderStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// Sender pushes a message through a tenant's connection. Implemented by
// the session registry.
type Sender interface {
	SendMessage(tenantID, recipient, text string) error
}

type Consumer struct {
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	sender Sender
	done   chan struct{}
}

// DialWithRetry connects to the broker with exponential backoff, honoring
// context cancellation.
func DialWithRetry(ctx context.Context, url string) (*amqp091.Connection, error) {
	var lastErr error

	for i := 1; i <= dialAttempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if i > 1 {
				log.Info().Int("attempt", i).Msg("amqp connected")
			}
			return conn, nil
		}
		lastErr = err

		sleep := dialBaseDelay * time.Duration(1<<(i-1))
		log.Warn().Err(err).Int("attempt", i).Dur("sleep", sleep).Msg("amqp dial failed")

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("failed to connect to amqp after %d attempts: %w", dialAttempts, lastErr)
}

func NewConsumer(ctx context.Context, url, exchange string, sender Sender) (*Consumer, error) {
	conn, err := DialWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, sender: sender, done: make(chan struct{})}, nil
}

func (c *Consumer) Start() error {
	deliveries, err := c.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-c.done:
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.handle(d)
			}
		}
	}()

	log.Info().Str("queue", queueName).Msg("order notification consumer started")
	return nil
}

func (c *Consumer) handle(d amqp091.Delivery) {
	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		log.Error().Err(err).Msg("notify: malformed envelope, discarding")
		_ = d.Nack(false, false)
		return
	}

	text := FormatStatusPush(env)
	if text == "" {
		// Status with no customer-facing message; ack and move on.
		_ = d.Ack(false)
		return
	}

	if err := c.sender.SendMessage(env.TenantID, env.CustomerPhone, text); err != nil {
		// Tenant offline: there is no point requeueing, the push is stale
		// by the time the tenant reconnects.
		log.Warn().Err(err).
			Str("tenantId", env.TenantID).
			Str("eventId", env.ID).
			Msg("notify: push dropped")
		_ = d.Nack(false, false)
		return
	}

	log.Debug().
		Str("tenantId", env.TenantID).
		Str("eventId", env.ID).
		Str("status", string(env.Status)).
		Msg("order status push enqueued")
	_ = d.Ack(false)
}

// FormatStatusPush renders the customer-facing text for a status event, or
// "" when the status has no push.
func FormatStatusPush(env Envelope) string {
	switch env.Status {
	case model.OrderStatusPaid:
		return fmt.Sprintf("✅ Tu pago del pedido #%s fue confirmado. ¡Gracias!", env.OrderCode)
	case model.OrderStatusPreparing:
		return fmt.Sprintf("👨‍🍳 Tu pedido #%s está en preparación.", env.OrderCode)
	case model.OrderStatusOutForDelivery:
		return fmt.Sprintf("🚚 Tu pedido #%s va en camino.", env.OrderCode)
	case model.OrderStatusDelivered:
		return fmt.Sprintf("📦 Tu pedido #%s fue entregado. ¡Que lo disfrutes!", env.OrderCode)
	case model.OrderStatusCancelled:
		return fmt.Sprintf("Tu pedido #%s fue cancelado. Escríbenos si tienes dudas.", env.OrderCode)
	}
	return ""
}

func (c *Consumer) Close() {
	close(c.done)
	if err := c.conn.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing amqp connection")
	}
}
