// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Result is the verdict for a single request
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before the window resets
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Store holds buckets. Hit must apply the whole read-modify-write for one
// key atomically.
type Store interface {
	Hit(key string, maxRequests int, window time.Duration, now time.Time) Result
}

// Observer is notified of every decision
type Observer interface {
	ObserveRateLimit(allowed bool)
}

type Limiter struct {
	store    Store
	clock    clockwork.Clock
	observer Observer
}

func NewLimiter(store Store, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{store: store, clock: clock}
}

// WithObserver attaches a decision observer (metrics)
func (l *Limiter) WithObserver(o Observer) *Limiter {
	l.observer = o
	return l
}

// Check counts one request for identifier against a fixed window of
// maxRequests per window.
func (l *Limiter) Check(identifier string, maxRequests int, window time.Duration) Result {
	res := l.store.Hit(identifier, maxRequests, window, l.clock.Now())
	if l.observer != nil {
		l.observer.ObserveRateLimit(res.Allowed)
	}
	return res
}

// Now returns the limiter's notion of the current time
func (l *Limiter) Now() time.Time {
	return l.clock.Now()
}

// Sweeper is a store that can drop buckets whose window has passed
type Sweeper interface {
	Sweep(now time.Time) int
}

// RunJanitor sweeps expired buckets every interval until ctx is done.
// It is a no-op for stores that do not implement Sweeper.
func (l *Limiter) RunJanitor(ctx context.Context, interval time.Duration) {
	sweeper, ok := l.store.(Sweeper)
	if !ok || interval <= 0 {
		return
	}

	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := sweeper.Sweep(l.clock.Now()); n > 0 {
				slog.Debug("rate limit buckets swept", "count", n)
			}
		}
	}
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps buckets in process memory
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

func (s *MemoryStore) Hit(key string, maxRequests int, window time.Duration, now time.Time) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{count: 1, resetAt: now.Add(window)}
		s.buckets[key] = b
		return Result{Allowed: true, Remaining: maxRequests - 1, ResetAt: b.resetAt}
	}

	if b.count >= maxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: b.resetAt}
	}

	b.count++
	return Result{Allowed: true, Remaining: maxRequests - b.count, ResetAt: b.resetAt}
}

// Sweep deletes buckets whose window ended at or before now
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, b := range s.buckets {
		if !now.Before(b.resetAt) {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Reset drops every bucket
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[string]*bucket)
}
