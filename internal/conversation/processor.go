package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperr "github.com/tiendalink/wabot-server-go/internal/errors"
	"github.com/tiendalink/wabot-server-go/internal/metrics"
	"github.com/tiendalink/wabot-server-go/internal/model"
	"github.com/tiendalink/wabot-server-go/internal/ratelimit"
	"github.com/tiendalink/wabot-server-go/internal/spam"
	"github.com/tiendalink/wabot-server-go/internal/waclient"
)

// TenantDirectory resolves tenant records for inbound gating.
type TenantDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

const processTimeout = 30 * time.Second

// Processor runs the inbound pipeline: gate (messaging enabled), rate
// limit, spam filter, then the router. Messages for the same (tenant, user)
// are processed strictly in receipt order on a per-key run queue; different
// keys run fully in parallel and never block each other.
type Processor struct {
	limiter *ratelimit.Limiter
	filter  *spam.Filter
	store   *Store
	router  *Router
	outbox  Outbox
	tenants TenantDirectory

	mu     sync.Mutex
	queues map[string]*userQueue
	wg     sync.WaitGroup
}

type userQueue struct {
	pending []model.InboundMessage
	running bool
}

func NewProcessor(
	limiter *ratelimit.Limiter,
	filter *spam.Filter,
	store *Store,
	router *Router,
	outbox Outbox,
	tenants TenantDirectory,
) *Processor {
	return &Processor{
		limiter: limiter,
		filter:  filter,
		store:   store,
		router:  router,
		outbox:  outbox,
		tenants: tenants,
		queues:  make(map[string]*userQueue),
	}
}

// HandleInbound enqueues one message for its (tenant, user) key and starts
// a worker for the key if none is draining it. Safe to call from the
// messaging client's goroutines.
func (p *Processor) HandleInbound(tenantID string, msg waclient.IncomingMessage) {
	inbound := model.InboundMessage{
		TenantID:   tenantID,
		UserID:     msg.Sender,
		Text:       msg.Text,
		HasImage:   msg.HasImage,
		ReceivedAt: msg.ReceivedAt,
	}

	key := tenantID + ":" + msg.Sender

	p.mu.Lock()
	q, ok := p.queues[key]
	if !ok {
		q = &userQueue{}
		p.queues[key] = q
	}
	q.pending = append(q.pending, inbound)
	start := !q.running
	if start {
		q.running = true
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if start {
		go p.drain(key, q)
	}
}

func (p *Processor) drain(key string, q *userQueue) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			delete(p.queues, key)
			p.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		p.mu.Unlock()

		p.process(msg)
	}
}

func (p *Processor) process(msg model.InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	tenant, err := p.tenants.FindByID(ctx, msg.TenantID)
	if err != nil {
		log.Error().Err(err).Str("tenantId", msg.TenantID).Msg("inbound: tenant lookup failed")
		metrics.InboundDropped.WithLabelValues("tenant_lookup").Inc()
		return
	}
	if tenant == nil || !tenant.MessagingEnabled {
		// ConfigurationError short-circuit: no reply, no state.
		log.Debug().Str("tenantId", msg.TenantID).
			Err(apperr.Configuration("messaging disabled")).
			Msg("inbound: short-circuit")
		metrics.InboundDropped.WithLabelValues("messaging_disabled").Inc()
		return
	}

	if res := p.limiter.Check(msg.TenantID, msg.UserID); !res.Allowed {
		metrics.InboundDropped.WithLabelValues(string(res.Reason)).Inc()
		if res.JustBlocked {
			// One notice on entering the block, not one per attempt.
			p.outbox.Enqueue(msg.TenantID, msg.UserID, throttleNoticeText(int(res.Wait.Seconds())))
		}
		return
	}

	if pattern := p.filter.Match(msg.Text); pattern != "" {
		log.Info().
			Str("audit", "spam").
			Str("tenantId", msg.TenantID).
			Str("userId", msg.UserID).
			Str("pattern", pattern).
			Msg("inbound message dropped by spam filter")
		metrics.InboundDropped.WithLabelValues("spam").Inc()
		return
	}

	session := p.store.Get(msg.TenantID, msg.UserID)
	session.Touch(time.Now())

	route, err := p.router.Dispatch(ctx, &Ctx{
		Session: session,
		Tenant:  tenant,
		Msg:     msg,
	})
	if err != nil {
		log.Error().Err(err).
			Str("tenantId", msg.TenantID).
			Str("userId", msg.UserID).
			Str("route", route).
			Msg("inbound: dispatch failed")
		return
	}

	metrics.InboundProcessed.WithLabelValues(route).Inc()
	log.Debug().
		Str("tenantId", msg.TenantID).
		Str("userId", msg.UserID).
		Str("route", route).
		Str("step", string(session.Step())).
		Msg("inbound processed")
}

// Wait blocks until all in-flight per-user work has finished. Used during
// shutdown so sessions are never left torn.
func (p *Processor) Wait() {
	p.wg.Wait()
}
