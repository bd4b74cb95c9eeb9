package model

import "time"

// TenantSessionInfo is the externally visible snapshot of one tenant's
// messaging connection, returned by the session registry.
type TenantSessionInfo struct {
	TenantID          string           `json:"tenantId"`
	ConnectionStatus  ConnectionStatus `json:"connectionStatus"`
	ConnectedIdentity string           `json:"connectedIdentity,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// PendingPairing holds the scannable pairing payload issued while a tenant
// is in pending_pairing. It is time-boxed: past ExpiresAt it is unavailable
// even if never consumed, and connect must be re-initiated.
type PendingPairing struct {
	TenantID       string    `json:"tenantId"`
	PairingPayload string    `json:"pairingPayload"`
	IssuedAt       time.Time `json:"issuedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

func (p *PendingPairing) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
