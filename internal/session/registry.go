// Package session owns the lifecycle of each tenant's messaging
// connection: create, pair, reconnect, terminate. Tenants are fully
// isolated; no operation ever takes a cross-tenant lock.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/dispatch"
	apperr "github.com/tiendalink/wabot-server-go/internal/errors"
	"github.com/tiendalink/wabot-server-go/internal/metrics"
	"github.com/tiendalink/wabot-server-go/internal/model"
	"github.com/tiendalink/wabot-server-go/internal/repository"
	"github.com/tiendalink/wabot-server-go/internal/sse"
	"github.com/tiendalink/wabot-server-go/internal/util"
	"github.com/tiendalink/wabot-server-go/internal/waclient"
)

// InboundSink receives end-user messages from live connections.
// Implemented by the conversation processor.
type InboundSink interface {
	HandleInbound(tenantID string, msg waclient.IncomingMessage)
}

type Options struct {
	PairingTTL     time.Duration
	ReconnectDelay time.Duration
}

type Registry struct {
	dialer     waclient.Dialer
	tenants    repository.TenantRepository
	statuses   repository.StatusRepository
	broker     *sse.Broker
	dispatcher *dispatch.Dispatcher
	sink       InboundSink
	opts       Options

	mu       sync.Mutex
	sessions map[string]*tenantSession
}

type tenantSession struct {
	tenantID  string
	status    model.ConnectionStatus
	pairing   *model.PendingPairing
	identity  string
	conn      waclient.Connection
	createdAt time.Time
	// closing marks an explicit disconnect in progress so the supervisor
	// ignores the closure events it triggers.
	closing bool
}

func NewRegistry(
	dialer waclient.Dialer,
	tenants repository.TenantRepository,
	statuses repository.StatusRepository,
	broker *sse.Broker,
	dispatcher *dispatch.Dispatcher,
	sink InboundSink,
	opts Options,
) *Registry {
	return &Registry{
		dialer:     dialer,
		tenants:    tenants,
		statuses:   statuses,
		broker:     broker,
		dispatcher: dispatcher,
		sink:       sink,
		opts:       opts,
		sessions:   make(map[string]*tenantSession),
	}
}

// Connect starts a pairing cycle for a tenant. A session whose pairing
// material already expired is torn down and replaced; an otherwise active
// session makes Connect fail with ALREADY_CONNECTED.
func (r *Registry) Connect(ctx context.Context, tenantID string) (*model.TenantSessionInfo, error) {
	tenant, err := r.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, "tenant lookup failed", err)
	}
	if tenant == nil {
		return nil, apperr.NotFound("Tenant")
	}
	if !tenant.MessagingEnabled {
		return nil, apperr.Configuration("Messaging is disabled for this tenant")
	}

	r.mu.Lock()
	if existing, ok := r.sessions[tenantID]; ok {
		expired := existing.status == model.ConnectionPendingPairing &&
			existing.pairing != nil && existing.pairing.Expired(time.Now())
		if !expired {
			r.mu.Unlock()
			return nil, apperr.AlreadyConnected(tenantID)
		}
		r.teardownLocked(existing)
	}

	s := &tenantSession{
		tenantID:  tenantID,
		status:    model.ConnectionPendingPairing,
		createdAt: time.Now(),
	}
	r.sessions[tenantID] = s
	r.mu.Unlock()

	conn, err := r.dialer.Connect(ctx, tenantID, r.handlers(tenantID))
	if err != nil {
		r.mu.Lock()
		delete(r.sessions, tenantID)
		r.mu.Unlock()
		return nil, apperr.Connection("failed to open messaging connection", err)
	}

	r.mu.Lock()
	s.conn = conn
	info := r.infoLocked(s)
	r.mu.Unlock()

	r.mirrorStatus(tenantID, model.ConnectionPendingPairing, nil, nil)
	log.Info().Str("tenantId", tenantID).Msg("pairing cycle started")

	return &info, nil
}

// Disconnect stops accepting inbound work for the tenant, discards its
// outbound queue and releases the connection. In-flight per-user processing
// is left to finish on its own.
func (r *Registry) Disconnect(ctx context.Context, tenantID string) error {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok {
		r.mu.Unlock()
		return apperr.NotConnected(tenantID)
	}
	s.closing = true
	wasConnected := s.status == model.ConnectionConnected
	conn := s.conn
	delete(r.sessions, tenantID)
	r.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Str("tenantId", tenantID).Msg("error closing connection")
		}
	}
	r.dispatcher.DiscardTenant(tenantID)

	if wasConnected {
		metrics.ConnectedTenants.Dec()
	}

	r.mirrorStatus(tenantID, model.ConnectionDisconnected, nil, nil)
	r.publish(tenantID, sse.EventDisconnected, map[string]string{"reason": "operator_disconnect"})
	log.Info().Str("tenantId", tenantID).Msg("tenant disconnected")

	return nil
}

// Status returns the connection snapshot for one tenant. A tenant without a
// session is reported as disconnected rather than as an error.
func (r *Registry) Status(tenantID string) model.TenantSessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[tenantID]
	if !ok {
		return model.TenantSessionInfo{
			TenantID:         tenantID,
			ConnectionStatus: model.ConnectionDisconnected,
		}
	}
	return r.infoLocked(s)
}

// PendingPairing returns the current pairing material, or nil once it has
// expired or been consumed. Callers seeing nil re-initiate Connect.
func (r *Registry) PendingPairing(tenantID string) *model.PendingPairing {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[tenantID]
	if !ok || s.pairing == nil {
		return nil
	}
	if s.pairing.Expired(time.Now()) {
		return nil
	}
	p := *s.pairing
	return &p
}

// SendMessage enqueues a system-originated message for a connected tenant.
func (r *Registry) SendMessage(tenantID, recipient, text string) error {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	connected := ok && s.status == model.ConnectionConnected
	r.mu.Unlock()

	if !connected {
		return apperr.NotConnected(tenantID)
	}

	r.dispatcher.Enqueue(tenantID, recipient, text)
	return nil
}

// AllStatuses lists the snapshots of every active session.
func (r *Registry) AllStatuses() []model.TenantSessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]model.TenantSessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, r.infoLocked(s))
	}
	return infos
}

// ExpirePairings tears down sessions whose pairing material lapsed without
// a successful connect. Called by the cleanup job.
func (r *Registry) ExpirePairings() int {
	now := time.Now()

	r.mu.Lock()
	var expired []*tenantSession
	for _, s := range r.sessions {
		if s.status == model.ConnectionPendingPairing && s.pairing != nil && s.pairing.Expired(now) {
			expired = append(expired, s)
			r.teardownLocked(s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.mirrorStatus(s.tenantID, model.ConnectionDisconnected, nil, nil)
		r.publish(s.tenantID, sse.EventPairingExpired, map[string]string{"reason": "timeout"})
		log.Info().Str("tenantId", s.tenantID).Msg("pairing expired")
	}
	return len(expired)
}

// Shutdown disconnects every tenant. Used on process exit.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	tenantIDs := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		tenantIDs = append(tenantIDs, id)
	}
	r.mu.Unlock()

	for _, id := range tenantIDs {
		if err := r.Disconnect(ctx, id); err != nil {
			log.Warn().Err(err).Str("tenantId", id).Msg("shutdown disconnect failed")
		}
	}
}

// deliver is the dispatcher's send path.
func (r *Registry) Deliver(ctx context.Context, tenantID, recipient, text string) error {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	var conn waclient.Connection
	if ok && s.status == model.ConnectionConnected {
		conn = s.conn
	}
	r.mu.Unlock()

	if conn == nil {
		return apperr.NotConnected(tenantID)
	}
	return conn.SendText(ctx, recipient, text)
}

// teardownLocked removes a session and closes its connection without
// status mirroring. Callers hold r.mu and publish afterwards.
func (r *Registry) teardownLocked(s *tenantSession) {
	s.closing = true
	if s.conn != nil {
		conn := s.conn
		go func() { _ = conn.Close() }()
	}
	if s.status == model.ConnectionConnected {
		metrics.ConnectedTenants.Dec()
	}
	delete(r.sessions, s.tenantID)
}

func (r *Registry) infoLocked(s *tenantSession) model.TenantSessionInfo {
	return model.TenantSessionInfo{
		TenantID:          s.tenantID,
		ConnectionStatus:  s.status,
		ConnectedIdentity: s.identity,
		CreatedAt:         s.createdAt,
	}
}

// mirrorStatus writes the operator-visible status record. Failures are
// logged, never propagated: the mirror is advisory.
func (r *Registry) mirrorStatus(tenantID string, status model.ConnectionStatus, identity *string, connectedAt *time.Time) {
	if r.statuses == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.statuses.Upsert(ctx, model.TenantStatus{
		TenantID:          tenantID,
		ConnectionStatus:  status,
		ConnectedIdentity: identity,
		LastConnectedAt:   connectedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("tenantId", tenantID).Msg("failed to mirror tenant status")
	}
}

func (r *Registry) publish(tenantID string, eventType sse.EventType, data any) {
	if r.broker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.broker.Publish(ctx, tenantID, eventType, data); err != nil {
		log.Warn().Err(err).Str("tenantId", tenantID).Msg("failed to publish status event")
	}
}

func maskedIdentity(identity string) string {
	return util.MaskIdentity(identity)
}
