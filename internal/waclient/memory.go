package waclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDialer is an in-process Dialer used by tests and local development.
// Production builds swap in a vendor adapter at this seam; the rest of the
// server is unaware of the difference.
type MemoryDialer struct {
	mu    sync.Mutex
	conns map[string]*MemoryConnection

	// AutoPair makes every connection emit a pairing code and immediately
	// complete pairing with a synthetic identity.
	AutoPair bool
}

func NewMemoryDialer() *MemoryDialer {
	return &MemoryDialer{conns: make(map[string]*MemoryConnection)}
}

func (d *MemoryDialer) Connect(ctx context.Context, tenantID string, handlers Handlers) (Connection, error) {
	d.mu.Lock()
	conn := &MemoryConnection{tenantID: tenantID, handlers: handlers}
	d.conns[tenantID] = conn
	d.mu.Unlock()

	if handlers.OnPairingCode != nil {
		handlers.OnPairingCode("qr:" + uuid.NewString())
	}

	if d.AutoPair {
		conn.CompletePairing(fmt.Sprintf("+0000%s", tenantID))
	}

	return conn, nil
}

// Conn returns the live connection for a tenant, or nil.
func (d *MemoryDialer) Conn(tenantID string) *MemoryConnection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[tenantID]
}

type MemoryConnection struct {
	tenantID string
	handlers Handlers

	mu     sync.Mutex
	closed bool
	sent   []SentMessage

	// SendErr, when set, makes SendText fail.
	SendErr error
	// SendDelay simulates network latency on SendText.
	SendDelay time.Duration
}

type SentMessage struct {
	Recipient string
	Text      string
	SentAt    time.Time
}

func (c *MemoryConnection) SendText(ctx context.Context, recipient, text string) error {
	if c.SendDelay > 0 {
		select {
		case <-time.After(c.SendDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	c.sent = append(c.sent, SentMessage{Recipient: recipient, Text: text, SentAt: time.Now()})
	return nil
}

func (c *MemoryConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MemoryConnection) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// CompletePairing drives the pairing callbacks the way a real client does
// after the QR is scanned.
func (c *MemoryConnection) CompletePairing(identity string) {
	if c.handlers.OnPaired != nil {
		c.handlers.OnPaired(identity)
	}
	if c.handlers.OnConnected != nil {
		c.handlers.OnConnected()
	}
}

// Deliver injects an inbound end-user message.
func (c *MemoryConnection) Deliver(msg IncomingMessage) {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(msg)
	}
}

// Drop simulates a connection loss with the given reason.
func (c *MemoryConnection) Drop(reason DisconnectReason) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if c.handlers.OnDisconnected != nil {
		c.handlers.OnDisconnected(reason)
	}
}
