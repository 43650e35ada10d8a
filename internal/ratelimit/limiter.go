// Package ratelimit implements the fixed-window admission gate consulted
// before the query pipeline runs. State is process-local and keyed by client
// identity; there is no persistence and no cross-instance coordination.
package ratelimit

import (
	"sync"
	"time"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// Default configuration values.
const (
	// DefaultMaxRequests is the number of requests allowed per window.
	DefaultMaxRequests = 10

	// DefaultWindow is the fixed (not sliding) admission window.
	DefaultWindow = 60 * time.Second

	// DefaultSweepThreshold is the tracked-client high-water mark above
	// which expired entries are swept inline during a check.
	DefaultSweepThreshold = 10000
)

// Config holds admission gate configuration.
type Config struct {
	// MaxRequests is the maximum requests allowed per window.
	MaxRequests int

	// Window is the fixed window length.
	Window time.Duration
}

// DefaultConfig allows 10 requests per minute.
var DefaultConfig = Config{
	MaxRequests: DefaultMaxRequests,
	Window:      DefaultWindow,
}

// Result is the outcome of one admission check.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetIn is the time until the window expires.
	ResetIn time.Duration
}

// Err maps a denied check onto the domain error taxonomy. Callers that
// propagate admission failures as errors use this instead of inspecting
// Allowed.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return domain.ErrRateLimitExceeded
}

// entry tracks one client's current window.
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a thread-safe fixed-window counter table. The read-check-write
// sequence for a key runs under one lock so two concurrent requests can
// never both take the last slot. It is created once and handed to request
// handlers explicitly rather than living in package state.
type Limiter struct {
	mu             sync.Mutex
	cfg            Config
	entries        map[string]*entry
	sweepThreshold int
	now            func() time.Time
}

// Option configures the limiter.
type Option func(*Limiter)

// WithClock replaces the time source. Useful for testing window expiry.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSweepThreshold sets the tracked-client count that triggers an inline
// sweep of expired entries.
func WithSweepThreshold(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.sweepThreshold = n
		}
	}
}

// NewLimiter creates a limiter with the given configuration. Zero-valued
// config fields fall back to the defaults.
func NewLimiter(cfg Config, opts ...Option) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	l := &Limiter{
		cfg:            cfg,
		entries:        make(map[string]*entry),
		sweepThreshold: DefaultSweepThreshold,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Check records one request attempt from clientID and reports whether it is
// admitted. A client with no entry, or whose window has expired, starts a
// fresh window with count 1. An exhausted client is denied without mutation.
func (l *Limiter) Check(clientID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if len(l.entries) > l.sweepThreshold {
		l.sweep(now)
	}

	e, ok := l.entries[clientID]
	if !ok || !e.resetAt.After(now) {
		l.entries[clientID] = &entry{count: 1, resetAt: now.Add(l.cfg.Window)}
		return Result{
			Allowed:   true,
			Remaining: l.cfg.MaxRequests - 1,
			ResetIn:   l.cfg.Window,
		}
	}

	if e.count >= l.cfg.MaxRequests {
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetIn:   e.resetAt.Sub(now),
		}
	}

	e.count++
	return Result{
		Allowed:   true,
		Remaining: l.cfg.MaxRequests - e.count,
		ResetIn:   e.resetAt.Sub(now),
	}
}

// Size returns the number of tracked clients.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep deletes all entries whose window has already passed.
// Caller must hold the lock.
func (l *Limiter) sweep(now time.Time) {
	before := len(l.entries)
	for id, e := range l.entries {
		if !e.resetAt.After(now) {
			delete(l.entries, id)
		}
	}
	logger.Debug("Rate limiter sweep: %d -> %d tracked clients", before, len(l.entries))
}
