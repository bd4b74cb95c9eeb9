package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/httputil"
	"github.com/tiendalink/wabot-server-go/internal/repository"
	"github.com/tiendalink/wabot-server-go/internal/session"
)

// StatusesHandler serves the cross-tenant fleet view for operators. The
// live column comes from this instance's registry; the persisted mirror
// covers tenants handled elsewhere.
type StatusesHandler struct {
	registry   *session.Registry
	statusRepo repository.StatusRepository
}

func NewStatusesHandler(registry *session.Registry, statusRepo repository.StatusRepository) *StatusesHandler {
	return &StatusesHandler{registry: registry, statusRepo: statusRepo}
}

// GET /v1/statuses
func (h *StatusesHandler) List(w http.ResponseWriter, r *http.Request) {
	persisted, err := h.statusRepo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list tenant statuses")
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to list statuses",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"live":      h.registry.AllStatuses(),
		"persisted": persisted,
	})
}
