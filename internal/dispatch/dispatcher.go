// Package dispatch serializes outbound replies per tenant: one FIFO queue
// and one worker per tenant, with fixed spacing between sends to stay under
// the messaging network's abuse thresholds.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tiendalink/wabot-server-go/internal/metrics"
	"github.com/tiendalink/wabot-server-go/internal/model"
)

const queueCapacity = 256

// SendFunc performs the actual network send for one tenant. Bound late by
// main to the session registry's delivery path.
type SendFunc func(ctx context.Context, tenantID, recipient, text string) error

type Dispatcher struct {
	mu     sync.Mutex
	queues map[string]*tenantQueue
	send   SendFunc
	delay  time.Duration
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type tenantQueue struct {
	ch      chan model.OutboundMessage
	limiter *rate.Limiter
}

func New(delay time.Duration) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queues: make(map[string]*tenantQueue),
		delay:  delay,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Bind sets the send function. Must be called once before the first
// Enqueue; it exists because the registry and the dispatcher reference each
// other and the registry is constructed second.
func (d *Dispatcher) Bind(send SendFunc) {
	d.send = send
}

// Enqueue appends a reply to the tenant's FIFO queue. If the queue is full
// the message is dropped: the conversation has already advanced, a stale
// reply must not be retried later.
func (d *Dispatcher) Enqueue(tenantID, recipient, text string) {
	msg := model.OutboundMessage{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Recipient:  recipient,
		Text:       text,
		EnqueuedAt: time.Now(),
	}

	d.mu.Lock()
	q, ok := d.queues[tenantID]
	if !ok {
		q = &tenantQueue{
			ch:      make(chan model.OutboundMessage, queueCapacity),
			limiter: rate.NewLimiter(rate.Every(d.delay), 1),
		}
		d.queues[tenantID] = q
		d.wg.Add(1)
		go d.work(q)
	}
	d.mu.Unlock()

	select {
	case q.ch <- msg:
	default:
		log.Warn().
			Str("tenantId", tenantID).
			Str("messageId", msg.ID).
			Msg("outbound queue full, dropping message")
		metrics.OutboundDropped.Inc()
	}
}

func (d *Dispatcher) work(q *tenantQueue) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-q.ch:
			if err := q.limiter.Wait(d.ctx); err != nil {
				return
			}
			d.deliver(msg)
		}
	}
}

func (d *Dispatcher) deliver(msg model.OutboundMessage) {
	ctx, cancel := context.WithTimeout(d.ctx, 15*time.Second)
	defer cancel()

	if err := d.send(ctx, msg.TenantID, msg.Recipient, msg.Text); err != nil {
		// Logged and dropped: re-deriving a stale reply is the state
		// machine's job, not ours.
		log.Error().Err(err).
			Str("tenantId", msg.TenantID).
			Str("messageId", msg.ID).
			Dur("queuedFor", time.Since(msg.EnqueuedAt)).
			Msg("outbound send failed, message dropped")
		metrics.OutboundDropped.Inc()
		return
	}

	metrics.OutboundSent.Inc()
}

// DiscardTenant drops any queued messages for a tenant. Called on
// disconnect; the worker stays parked on its (now empty) channel.
func (d *Dispatcher) DiscardTenant(tenantID string) int {
	d.mu.Lock()
	q, ok := d.queues[tenantID]
	d.mu.Unlock()
	if !ok {
		return 0
	}

	discarded := 0
	for {
		select {
		case <-q.ch:
			discarded++
		default:
			if discarded > 0 {
				log.Info().
					Str("tenantId", tenantID).
					Int("count", discarded).
					Msg("discarded queued outbound messages")
			}
			return discarded
		}
	}
}

// Close stops all workers. Queued messages are discarded.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
