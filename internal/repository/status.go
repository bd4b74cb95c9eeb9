package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

// StatusRepository mirrors connection status for operator tooling. It is
// write-mostly: the session registry upserts on every transition.
type StatusRepository interface {
	Upsert(ctx context.Context, status model.TenantStatus) error
	List(ctx context.Context) ([]model.TenantStatus, error)
}

type statusRepo struct {
	db *sqlx.DB
}

func NewStatusRepository(db *sqlx.DB) StatusRepository {
	return &statusRepo{db: db}
}

func (r *statusRepo) Upsert(ctx context.Context, status model.TenantStatus) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenant_status (tenant_id, connection_status, connected_identity, last_connected_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			connection_status = EXCLUDED.connection_status,
			connected_identity = EXCLUDED.connected_identity,
			last_connected_at = COALESCE(EXCLUDED.last_connected_at, tenant_status.last_connected_at),
			updated_at = EXCLUDED.updated_at
	`, status.TenantID, status.ConnectionStatus, status.ConnectedIdentity, status.LastConnectedAt, time.Now())
	return err
}

func (r *statusRepo) List(ctx context.Context) ([]model.TenantStatus, error) {
	var statuses []model.TenantStatus
	err := r.db.SelectContext(ctx, &statuses, `
		SELECT * FROM tenant_status ORDER BY tenant_id
	`)
	return statuses, err
}
