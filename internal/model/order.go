package model

import "time"

type Order struct {
	ID              string      `db:"id" json:"id"`
	TenantID        string      `db:"tenant_id" json:"tenantId"`
	ShortCode       string      `db:"short_code" json:"shortCode"`
	CustomerPhone   string      `db:"customer_phone" json:"customerPhone"`
	Origin          OrderOrigin `db:"origin" json:"origin"`
	Status          OrderStatus `db:"status" json:"status"`
	TotalCents      int64       `db:"total_cents" json:"totalCents"`
	DeliveryAddress *string     `db:"delivery_address" json:"deliveryAddress,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}
