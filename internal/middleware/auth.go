package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/model"
	"github.com/tiendalink/wabot-server-go/internal/repository"
	"github.com/tiendalink/wabot-server-go/internal/util"
)

type contextKey string

const TenantContextKey contextKey = "tenant"

func GetTenant(ctx context.Context) *model.Tenant {
	if tenant, ok := ctx.Value(TenantContextKey).(*model.Tenant); ok {
		return tenant
	}
	return nil
}

type AuthMiddleware struct {
	tenantRepo repository.TenantRepository
}

func NewAuthMiddleware(tenantRepo repository.TenantRepository) *AuthMiddleware {
	return &AuthMiddleware{tenantRepo: tenantRepo}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		tokenHash := util.HashToken(token)
		tenant, err := m.tenantRepo.FindByTokenHash(r.Context(), tokenHash)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
			return
		}

		if tenant == nil {
			log.Warn().Msg("auth middleware: invalid token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), TenantContextKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
