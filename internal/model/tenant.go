package model

import "time"

type Tenant struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	BusinessHours    string    `db:"business_hours" json:"businessHours"`
	MessagingEnabled bool      `db:"messaging_enabled" json:"messagingEnabled"`
	APITokenHash     string    `db:"api_token_hash" json:"-"`
	RateLimitPerMin  int       `db:"rate_limit_per_min" json:"rateLimitPerMin"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// TenantStatus is the operator-visible mirror of a tenant's connection
// state. Written on every transition, never read by conversation logic.
type TenantStatus struct {
	TenantID          string           `db:"tenant_id" json:"tenantId"`
	ConnectionStatus  ConnectionStatus `db:"connection_status" json:"connectionStatus"`
	ConnectedIdentity *string          `db:"connected_identity" json:"connectedIdentity,omitempty"`
	LastConnectedAt   *time.Time       `db:"last_connected_at" json:"lastConnectedAt,omitempty"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
}
