// Package sse fans tenant connection-status events (QR issued, paired,
// connected, disconnected) out to operator dashboards. Events travel over
// redis pub/sub so any instance can serve the stream.
package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/tiendalink/wabot-server-go/internal/redis"
)

const HeartbeatInterval = 30 * time.Second

type EventType string

const (
	EventPairingIssued  EventType = "pairing_issued"
	EventPairingExpired EventType = "pairing_expired"
	EventPaired         EventType = "paired"
	EventConnected      EventType = "connected"
	EventReconnecting   EventType = "reconnecting"
	EventDisconnected   EventType = "disconnected"
)

type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	TenantID string
	Events   chan Event
	Done     chan struct{}
}

type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // tenantID -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(tenantID string) *Client {
	client := &Client{
		TenantID: tenantID,
		Events:   make(chan Event, 100),
		Done:     make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[tenantID] == nil {
		b.clients[tenantID] = make(map[*Client]bool)
		go b.subscribeToRedis(tenantID)
	}
	b.clients[tenantID][client] = true
	clientCount := len(b.clients[tenantID])
	b.mu.Unlock()

	log.Info().
		Str("tenantId", tenantID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.TenantID]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.TenantID)
		}

		log.Info().
			Str("tenantId", client.TenantID).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

// Publish pushes a status event for a tenant through redis.
func (b *Broker) Publish(ctx context.Context, tenantID string, eventType EventType, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		return err
	}

	channel := redisclient.StatusChannel(tenantID)
	return b.redis.Publish(ctx, channel, raw).Err()
}

func (b *Broker) subscribeToRedis(tenantID string) {
	channel := redisclient.StatusChannel(tenantID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal status event")
				continue
			}

			b.broadcast(tenantID, event)
		}
	}
}

func (b *Broker) broadcast(tenantID string, event Event) {
	b.mu.RLock()
	clients := b.clients[tenantID]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("tenantId", tenantID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}
