package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrCoolingDown is returned while a rate-limit cool-down is active. Callers
// should skip the cycle rather than hammer the API.
var ErrCoolingDown = errors.New("marketplace API cooling down")

// Limiter controls the call rate against the marketplace API. It combines a
// token bucket with a cool-down window that activates when the API answers
// 429 or 403.
type Limiter struct {
	limiter *rate.Limiter

	mu            sync.Mutex
	cooldownUntil time.Time
	nowFunc       func() time.Time
}

// LimiterOption configures the Limiter.
type LimiterOption func(*Limiter)

// WithLimiterNowFunc overrides the time function for testing.
func WithLimiterNowFunc(f func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// NewLimiter creates a limiter with the given per-second rate and burst.
func NewLimiter(perSecond float64, burst int, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait blocks until the limiter allows the call, or the context is canceled.
// Returns ErrCoolingDown immediately while a cool-down is active.
func (l *Limiter) Wait(ctx context.Context) error {
	if until, active := l.cooldown(); active {
		return fmt.Errorf("%w until %s", ErrCoolingDown, until.Format(time.RFC3339))
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// StartCooldown opens a cool-down window of the given duration. Subsequent
// windows extend, never shorten, the active one.
func (l *Limiter) StartCooldown(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	until := l.nowFunc().Add(d)
	if until.After(l.cooldownUntil) {
		l.cooldownUntil = until
	}
}

// CoolingDown reports whether a cool-down window is active.
func (l *Limiter) CoolingDown() bool {
	_, active := l.cooldown()
	return active
}

func (l *Limiter) cooldown() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nowFunc().Before(l.cooldownUntil) {
		return l.cooldownUntil, true
	}
	return time.Time{}, false
}
