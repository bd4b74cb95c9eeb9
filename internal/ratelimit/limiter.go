// Package ratelimit implements the per-(tenant, end-user) abuse control:
// a sliding window with a cooldown block, plus a minimum inter-message gap
// that absorbs double-sends without charging the user's quota.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

type Reason string

const (
	ReasonRateLimit Reason = "rate_limit"
	ReasonTooFast   Reason = "too_fast"
)

type Result struct {
	Allowed bool
	Reason  Reason
	Wait    time.Duration
	// JustBlocked is true only on the check that tripped the block, so the
	// caller can send a single throttling notice instead of one per attempt.
	JustBlocked bool
}

type entry struct {
	timestamps    []time.Time
	lastMessageAt time.Time
	blockedUntil  time.Time
	lastAccess    time.Time
}

type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	window      time.Duration
	limit       int
	minInterval time.Duration

	now func() time.Time
}

func New(window time.Duration, limit int, minInterval time.Duration) *Limiter {
	return &Limiter{
		entries:     make(map[string]*entry),
		window:      window,
		limit:       limit,
		minInterval: minInterval,
		now:         time.Now,
	}
}

func key(tenantID, userID string) string {
	return fmt.Sprintf("%s:%s", tenantID, userID)
}

func (l *Limiter) Check(tenantID, userID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[key(tenantID, userID)]
	if !ok {
		e = &entry{}
		l.entries[key(tenantID, userID)] = e
	}
	e.lastAccess = now

	if !e.blockedUntil.IsZero() {
		if now.Before(e.blockedUntil) {
			return Result{
				Allowed: false,
				Reason:  ReasonRateLimit,
				Wait:    e.blockedUntil.Sub(now),
			}
		}
		// Block expired: reset to a clean window.
		e.blockedUntil = time.Time{}
		e.timestamps = e.timestamps[:0]
	}

	windowStart := now.Add(-l.window)
	filtered := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(windowStart) {
			filtered = append(filtered, ts)
		}
	}
	e.timestamps = filtered

	if len(e.timestamps) >= l.limit {
		e.blockedUntil = now.Add(l.window)
		return Result{
			Allowed:     false,
			Reason:      ReasonRateLimit,
			Wait:        l.window,
			JustBlocked: true,
		}
	}

	if !e.lastMessageAt.IsZero() && now.Sub(e.lastMessageAt) < l.minInterval {
		// Echo/double-send: deny without recording, no block escalation.
		return Result{
			Allowed: false,
			Reason:  ReasonTooFast,
			Wait:    l.minInterval - now.Sub(e.lastMessageAt),
		}
	}

	e.timestamps = append(e.timestamps, now)
	e.lastMessageAt = now
	return Result{Allowed: true}
}

// PruneIdle drops records idle longer than ttl. Called by the cleanup job;
// losing a record is harmless, a fresh one starts with an empty window.
func (l *Limiter) PruneIdle(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	pruned := 0
	for k, e := range l.entries {
		if now.Sub(e.lastAccess) > ttl && now.After(e.blockedUntil) {
			delete(l.entries, k)
			pruned++
		}
	}
	return pruned
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
