// Package waclient defines the capability boundary to the messaging
// network. The session registry depends only on these interfaces; any
// vendor client satisfying them is substitutable.
package waclient

import (
	"context"
	"time"
)

// IncomingMessage is one end-user message delivered on a connection.
type IncomingMessage struct {
	Sender     string
	Text       string
	HasImage   bool
	ReceivedAt time.Time
}

// DisconnectReason classifies an abnormal closure. LoggedOut means the
// tenant explicitly unlinked the device: the session is terminal and must
// not be retried.
type DisconnectReason struct {
	Code      string
	LoggedOut bool
}

// Handlers are the callbacks a connection owner registers before dialing.
// All callbacks may be invoked from the client's own goroutines.
type Handlers struct {
	// OnPairingCode fires when the network issues scannable pairing
	// material (QR payload). May fire more than once per pairing cycle.
	OnPairingCode func(payload string)
	// OnPaired fires once the device link completes, carrying the
	// connected identity (phone number).
	OnPaired func(identity string)
	OnConnected    func()
	OnDisconnected func(reason DisconnectReason)
	OnMessage      func(msg IncomingMessage)
}

// Connection is one live tenant connection.
type Connection interface {
	SendText(ctx context.Context, recipient, text string) error
	Close() error
}

// Dialer opens connections. One Connect call per tenant session; a fresh
// pairing cycle requires a fresh Connect.
type Dialer interface {
	Connect(ctx context.Context, tenantID string, handlers Handlers) (Connection, error)
}
