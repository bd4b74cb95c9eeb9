package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/wabot-server-go/internal/dispatch"
	"github.com/tiendalink/wabot-server-go/internal/middleware"
	"github.com/tiendalink/wabot-server-go/internal/model"
	"github.com/tiendalink/wabot-server-go/internal/session"
	"github.com/tiendalink/wabot-server-go/internal/waclient"
)

type tenantRepoStub struct {
	tenants map[string]*model.Tenant
}

func (s *tenantRepoStub) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	return s.tenants[id], nil
}

func (s *tenantRepoStub) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Tenant, error) {
	return nil, nil
}

func (s *tenantRepoStub) List(ctx context.Context) ([]model.Tenant, error) {
	return nil, nil
}

// asTenant stands in for the auth middleware: the token's tenant is already
// resolved into the request context.
func asTenant(tenant *model.Tenant, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.TenantContextKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type testServer struct {
	handler http.Handler
	dialer  *waclient.MemoryDialer
	tenant  *model.Tenant
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dialer := waclient.NewMemoryDialer()
	dispatcher := dispatch.New(time.Millisecond)
	t.Cleanup(dispatcher.Close)

	tenant := &model.Tenant{ID: "tenant-1", Name: "Tacos El Güero", MessagingEnabled: true}
	repo := &tenantRepoStub{tenants: map[string]*model.Tenant{"tenant-1": tenant}}

	registry := session.NewRegistry(dialer, repo, nil, nil, dispatcher, nil, session.Options{
		PairingTTL:     time.Minute,
		ReconnectDelay: time.Second,
	})
	dispatcher.Bind(registry.Deliver)

	r := chi.NewRouter()
	r.Mount("/v1/tenants", NewTenantHandler(registry).Routes())

	return &testServer{
		handler: asTenant(tenant, r),
		dialer:  dialer,
		tenant:  tenant,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestTenantHandler(t *testing.T) {
	t.Run("connect starts pairing", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var info model.TenantSessionInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, model.ConnectionPendingPairing, info.ConnectionStatus)
	})

	t.Run("connect twice conflicts", func(t *testing.T) {
		s := newTestServer(t)

		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "").Code)
		rec := s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "ALREADY_CONNECTED")
	})

	t.Run("pairing returns the payload while fresh", func(t *testing.T) {
		s := newTestServer(t)
		s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")

		rec := s.do(http.MethodGet, "/v1/tenants/tenant-1/pairing", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var pairing model.PendingPairing
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairing))
		assert.Contains(t, pairing.PairingPayload, "qr:")
	})

	t.Run("pairing without a cycle reports expiry", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/v1/tenants/tenant-1/pairing", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "PAIRING_EXPIRED")
	})

	t.Run("status reflects the lifecycle", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/v1/tenants/tenant-1/status", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "disconnected")

		s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")
		s.dialer.Conn("tenant-1").CompletePairing("+5215598765432")

		rec = s.do(http.MethodGet, "/v1/tenants/tenant-1/status", "")
		assert.Contains(t, rec.Body.String(), `"connected"`)
	})

	t.Run("send message queues for a connected tenant", func(t *testing.T) {
		s := newTestServer(t)
		s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")
		s.dialer.Conn("tenant-1").CompletePairing("+5215598765432")

		rec := s.do(http.MethodPost, "/v1/tenants/tenant-1/messages",
			`{"recipient": "+5215512345678", "text": "tu pedido va en camino"}`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("send message validates the body", func(t *testing.T) {
		s := newTestServer(t)
		s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")
		s.dialer.Conn("tenant-1").CompletePairing("+5215598765432")

		rec := s.do(http.MethodPost, "/v1/tenants/tenant-1/messages", `{"recipient": ""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodPost, "/v1/tenants/tenant-1/messages", `not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("send message requires a connection", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/v1/tenants/tenant-1/messages",
			`{"recipient": "+5215512345678", "text": "hola"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_CONNECTED")
	})

	t.Run("disconnect releases the session", func(t *testing.T) {
		s := newTestServer(t)
		s.do(http.MethodPost, "/v1/tenants/tenant-1/connect", "")

		rec := s.do(http.MethodDelete, "/v1/tenants/tenant-1/connection", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(http.MethodDelete, "/v1/tenants/tenant-1/connection", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("token tenant must match the url tenant", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/v1/tenants/tenant-2/connect", "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
