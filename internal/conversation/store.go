package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

// Session is the per-(tenant, end-user) conversation state. Field access is
// serialized by the processor's per-user queue; the embedded mutex covers
// the eviction job reading activity timestamps concurrently.
type Session struct {
	TenantID string
	UserID   string

	mu              sync.Mutex
	step            model.Step
	pendingOrder    *model.Order
	paymentMethod   model.PaymentMethod
	deliveryAddress string
	lastActivityAt  time.Time
}

func (s *Session) Step() model.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) SetStep(step model.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

func (s *Session) PendingOrder() *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingOrder
}

func (s *Session) SetPendingOrder(o *model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingOrder = o
}

func (s *Session) PaymentMethod() model.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentMethod
}

func (s *Session) SetPaymentMethod(m model.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethod = m
}

func (s *Session) DeliveryAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveryAddress
}

func (s *Session) SetDeliveryAddress(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveryAddress = addr
}

// Reset discards any in-flight flow and returns the session to welcome.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = model.StepWelcome
	s.pendingOrder = nil
	s.paymentMethod = ""
}

func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivityAt = now
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt
}

// Store holds conversation sessions, created lazily on first contact and
// evicted after the inactivity window. Eviction is advisory cleanup: a
// fresh session is simply created if the user re-engages.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func sessionKey(tenantID, userID string) string {
	return fmt.Sprintf("%s:%s", tenantID, userID)
}

func (st *Store) Get(tenantID, userID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := sessionKey(tenantID, userID)
	if s, ok := st.sessions[key]; ok {
		return s
	}

	s := &Session{
		TenantID:       tenantID,
		UserID:         userID,
		step:           model.StepWelcome,
		lastActivityAt: st.now(),
	}
	st.sessions[key] = s
	return s
}

func (st *Store) EvictIdle(ttl time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	evicted := 0
	for key, s := range st.sessions {
		if now.Sub(s.LastActive()) > ttl {
			delete(st.sessions, key)
			evicted++
		}
	}
	return evicted
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
