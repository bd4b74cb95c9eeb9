package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
}

type tenantRepo struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.db.GetContext(ctx, &t, `
		SELECT * FROM tenants WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.db.GetContext(ctx, &t, `
		SELECT * FROM tenants WHERE api_token_hash = $1
	`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) List(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := r.db.SelectContext(ctx, &tenants, `
		SELECT * FROM tenants ORDER BY created_at
	`)
	return tenants, err
}
