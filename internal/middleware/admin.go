package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/util"
)

// AdminMiddleware guards cross-tenant routes (fleet status listing) with a
// bcrypt-hashed operator token from the environment.
type AdminMiddleware struct {
	tokenHash string
}

func NewAdminMiddleware(tokenHash string) *AdminMiddleware {
	return &AdminMiddleware{tokenHash: tokenHash}
}

func (m *AdminMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.tokenHash == "" {
			log.Warn().Msg("admin middleware: ADMIN_TOKEN_HASH not set, rejecting request")
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Admin access not configured",
			})
			return
		}

		token := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
		if token == "" || !util.CheckTokenHash(token, m.tokenHash) {
			log.Warn().Msg("admin middleware: invalid admin token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid admin token",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
