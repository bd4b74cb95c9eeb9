package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

type OrderRepository interface {
	FindByShortCode(ctx context.Context, tenantID, shortCode string) (*model.Order, error)
	SetDeliveryAddress(ctx context.Context, orderID, address string) error
	ListRecentByCustomer(ctx context.Context, tenantID, customerPhone string, limit int) ([]model.Order, error)
}

type orderRepo struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) FindByShortCode(ctx context.Context, tenantID, shortCode string) (*model.Order, error) {
	var o model.Order
	err := r.db.GetContext(ctx, &o, `
		SELECT * FROM orders
		WHERE tenant_id = $1 AND short_code = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, tenantID, shortCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) SetDeliveryAddress(ctx context.Context, orderID, address string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			delivery_address = $2,
			updated_at = $3
		WHERE id = $1
	`, orderID, address, time.Now())
	return err
}

func (r *orderRepo) ListRecentByCustomer(ctx context.Context, tenantID, customerPhone string, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE tenant_id = $1 AND customer_phone = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, tenantID, customerPhone, limit)
	return orders, err
}
