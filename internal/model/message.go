package model

import "time"

type InboundMessage struct {
	TenantID   string
	UserID     string
	Text       string
	HasImage   bool
	ReceivedAt time.Time
}

// OutboundMessage is ephemeral: consumed by the dispatcher in FIFO order,
// never persisted, dropped (not retried) if the send fails.
type OutboundMessage struct {
	ID         string
	TenantID   string
	Recipient  string
	Text       string
	EnqueuedAt time.Time
}
