package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/metrics"
	"github.com/tiendalink/wabot-server-go/internal/model"
	"github.com/tiendalink/wabot-server-go/internal/sse"
	"github.com/tiendalink/wabot-server-go/internal/waclient"
)

// handlers builds the callback set for one tenant's connection. The
// closures look the session up by id on every event: a reconnected session
// keeps the same registry entry but a torn-down one ignores late events.
func (r *Registry) handlers(tenantID string) waclient.Handlers {
	return waclient.Handlers{
		OnPairingCode:  func(payload string) { r.onPairingCode(tenantID, payload) },
		OnPaired:       func(identity string) { r.onPaired(tenantID, identity) },
		OnConnected:    func() { r.onConnected(tenantID) },
		OnDisconnected: func(reason waclient.DisconnectReason) { r.onDisconnected(tenantID, reason) },
		OnMessage:      func(msg waclient.IncomingMessage) { r.onMessage(tenantID, msg) },
	}
}

func (r *Registry) onPairingCode(tenantID, payload string) {
	now := time.Now()
	pairing := &model.PendingPairing{
		TenantID:       tenantID,
		PairingPayload: payload,
		IssuedAt:       now,
		ExpiresAt:      now.Add(r.opts.PairingTTL),
	}

	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok || s.closing {
		r.mu.Unlock()
		return
	}
	s.pairing = pairing
	r.mu.Unlock()

	r.publish(tenantID, sse.EventPairingIssued, map[string]any{
		"expiresAt": pairing.ExpiresAt,
	})
	log.Info().Str("tenantId", tenantID).Time("expiresAt", pairing.ExpiresAt).Msg("pairing code issued")
}

func (r *Registry) onPaired(tenantID, identity string) {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok || s.closing {
		r.mu.Unlock()
		return
	}
	s.identity = identity
	s.pairing = nil
	s.status = model.ConnectionConnecting
	r.mu.Unlock()

	r.mirrorStatus(tenantID, model.ConnectionConnecting, &identity, nil)
	r.publish(tenantID, sse.EventPaired, map[string]string{
		"identity": maskedIdentity(identity),
	})
	log.Info().Str("tenantId", tenantID).Str("identity", maskedIdentity(identity)).Msg("device paired")
}

func (r *Registry) onConnected(tenantID string) {
	now := time.Now()

	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok || s.closing {
		r.mu.Unlock()
		return
	}
	wasConnected := s.status == model.ConnectionConnected
	s.status = model.ConnectionConnected
	identity := s.identity
	r.mu.Unlock()

	if !wasConnected {
		metrics.ConnectedTenants.Inc()
	}

	r.mirrorStatus(tenantID, model.ConnectionConnected, &identity, &now)
	r.publish(tenantID, sse.EventConnected, map[string]string{
		"identity": maskedIdentity(identity),
	})
	log.Info().Str("tenantId", tenantID).Msg("tenant connected")
}

// onDisconnected is the reconnection supervisor: explicit logout is
// terminal, everything else re-enters connecting and retries after a fixed
// delay, indefinitely, until success or operator disconnect.
func (r *Registry) onDisconnected(tenantID string, reason waclient.DisconnectReason) {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok || s.closing {
		r.mu.Unlock()
		return
	}

	if reason.LoggedOut {
		r.teardownLocked(s)
		r.mu.Unlock()

		r.dispatcher.DiscardTenant(tenantID)
		r.mirrorStatus(tenantID, model.ConnectionDisconnected, nil, nil)
		r.publish(tenantID, sse.EventDisconnected, map[string]string{"reason": reason.Code})
		log.Warn().
			Str("tenantId", tenantID).
			Str("reason", reason.Code).
			Msg("connection logged out, session terminated")
		return
	}

	wasConnected := s.status == model.ConnectionConnected
	s.status = model.ConnectionConnecting
	s.conn = nil
	r.mu.Unlock()

	if wasConnected {
		metrics.ConnectedTenants.Dec()
	}

	r.mirrorStatus(tenantID, model.ConnectionConnecting, nil, nil)
	r.publish(tenantID, sse.EventReconnecting, map[string]string{"reason": reason.Code})
	log.Warn().
		Str("tenantId", tenantID).
		Str("reason", reason.Code).
		Dur("delay", r.opts.ReconnectDelay).
		Msg("connection dropped, reconnect scheduled")

	r.scheduleReconnect(tenantID)
}

func (r *Registry) scheduleReconnect(tenantID string) {
	time.AfterFunc(r.opts.ReconnectDelay, func() { r.redial(tenantID) })
}

func (r *Registry) redial(tenantID string) {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok || s.closing {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	metrics.ReconnectAttempts.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	conn, err := r.dialer.Connect(ctx, tenantID, r.handlers(tenantID))
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("tenantId", tenantID).Msg("reconnect attempt failed")
		r.scheduleReconnect(tenantID)
		return
	}

	r.mu.Lock()
	s, ok = r.sessions[tenantID]
	if !ok || s.closing {
		r.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	r.mu.Unlock()

	log.Info().Str("tenantId", tenantID).Msg("reconnect dial succeeded")
}

func (r *Registry) onMessage(tenantID string, msg waclient.IncomingMessage) {
	if r.sink == nil {
		return
	}
	r.sink.HandleInbound(tenantID, msg)
}
