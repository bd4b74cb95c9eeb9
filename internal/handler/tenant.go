package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperr "github.com/tiendalink/wabot-server-go/internal/errors"
	"github.com/tiendalink/wabot-server-go/internal/httputil"
	"github.com/tiendalink/wabot-server-go/internal/middleware"
	"github.com/tiendalink/wabot-server-go/internal/session"
)

type TenantHandler struct {
	registry *session.Registry
}

func NewTenantHandler(registry *session.Registry) *TenantHandler {
	return &TenantHandler{registry: registry}
}

func (h *TenantHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/{tenantID}/connect", h.Connect)
	r.Delete("/{tenantID}/connection", h.Disconnect)
	r.Get("/{tenantID}/status", h.Status)
	r.Get("/{tenantID}/pairing", h.Pairing)
	r.Post("/{tenantID}/messages", h.SendMessage)

	return r
}

// authorizedTenant checks that the token's tenant matches the URL. Returns
// "" after writing the error response when it does not.
func authorizedTenant(w http.ResponseWriter, r *http.Request) string {
	tenantID := chi.URLParam(r, "tenantID")
	tenant := middleware.GetTenant(r.Context())
	if tenant == nil || tenant.ID != tenantID {
		httputil.WriteJSON(w, http.StatusForbidden, map[string]string{
			"error": "Token does not grant access to this tenant",
		})
		return ""
	}
	return tenantID
}

// POST /v1/tenants/{tenantID}/connect
func (h *TenantHandler) Connect(w http.ResponseWriter, r *http.Request) {
	tenantID := authorizedTenant(w, r)
	if tenantID == "" {
		return
	}

	info, err := h.registry.Connect(r.Context(), tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenantId", tenantID).Msg("connect failed")
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, info)
}

// DELETE /v1/tenants/{tenantID}/connection
func (h *TenantHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	tenantID := authorizedTenant(w, r)
	if tenantID == "" {
		return
	}

	if err := h.registry.Disconnect(r.Context(), tenantID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// GET /v1/tenants/{tenantID}/status
func (h *TenantHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenantID := authorizedTenant(w, r)
	if tenantID == "" {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.registry.Status(tenantID))
}

// GET /v1/tenants/{tenantID}/pairing
func (h *TenantHandler) Pairing(w http.ResponseWriter, r *http.Request) {
	tenantID := authorizedTenant(w, r)
	if tenantID == "" {
		return
	}

	pairing := h.registry.PendingPairing(tenantID)
	if pairing == nil {
		httputil.WriteError(w, apperr.PairingExpired())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pairing)
}

type sendMessageRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// POST /v1/tenants/{tenantID}/messages
func (h *TenantHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	tenantID := authorizedTenant(w, r)
	if tenantID == "" {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperr.ValidationError("Malformed request body"))
		return
	}
	if req.Recipient == "" || req.Text == "" {
		httputil.WriteError(w, apperr.ValidationError("recipient and text are required"))
		return
	}

	if err := h.registry.SendMessage(tenantID, req.Recipient, req.Text); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
