package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Irehund/JobTrack/internal/model"
)

// ErrDailyQuotaExceeded is returned once a key has used its daily allowance.
var ErrDailyQuotaExceeded = errors.New("daily request quota exceeded")

// Limiter enforces a minimum delay between requests sharing a key, e.g. all
// providers behind one RapidAPI subscription or all routing calls.
type Limiter struct {
	mu       sync.Mutex
	nextSlot map[string]time.Time // earliest start for the next request per key
	minDelay time.Duration
	now      func() time.Time
}

// NewLimiter creates a limiter spacing requests for the same key by minDelay.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		nextSlot: make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// PerMinute returns a limiter spacing requests evenly for n requests a minute.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		return NewLimiter(0)
	}
	return NewLimiter(time.Minute / time.Duration(n))
}

// Wait blocks until the key's next slot. Slots are reserved under the lock so
// concurrent callers queue instead of firing together.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := l.now()
	slot := l.nextSlot[key]
	if slot.Before(now) {
		slot = now
	}
	l.nextSlot[key] = slot.Add(l.minDelay)
	l.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// DailyQuota counts requests per calendar day (local time) and refuses once
// the limit is reached.
type DailyQuota struct {
	mu    sync.Mutex
	limit int
	day   string
	used  int
	now   func() time.Time
}

// NewDailyQuota creates a quota of limit requests per day. A non-positive
// limit disables the quota.
func NewDailyQuota(limit int) *DailyQuota {
	return &DailyQuota{limit: limit, now: time.Now}
}

// Take consumes n requests, or none if that would exceed the limit.
func (q *DailyQuota) Take(n int) error {
	if q.limit <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().Format(time.DateOnly)
	if today != q.day {
		q.day = today
		q.used = 0
	}
	if q.used+n > q.limit {
		return fmt.Errorf("%w: %d of %d used today", ErrDailyQuotaExceeded, q.used, q.limit)
	}
	q.used += n
	return nil
}

// Remaining returns how many requests are left today.
func (q *DailyQuota) Remaining() int {
	if q.limit <= 0 {
		return -1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.now().Format(time.DateOnly) != q.day {
		return q.limit
	}
	return q.limit - q.used
}

// RateLimitedProvider is a decorator that enforces key-level rate limiting
// before delegating to the wrapped provider.
type RateLimitedProvider struct {
	inner   model.Provider
	limiter *Limiter
	key     string
}

// NewRateLimitedProvider wraps a provider. Providers sharing an upstream API
// should share the limiter and key.
func NewRateLimitedProvider(inner model.Provider, limiter *Limiter, key string) *RateLimitedProvider {
	return &RateLimitedProvider{inner: inner, limiter: limiter, key: key}
}

func (p *RateLimitedProvider) Name() string { return p.inner.Name() }

// Fetch waits for the limiter, then delegates.
func (p *RateLimitedProvider) Fetch(ctx context.Context, q model.Query) ([]model.JobListing, error) {
	if err := p.limiter.Wait(ctx, p.key); err != nil {
		return nil, err
	}
	return p.inner.Fetch(ctx, q)
}

// RateLimitedRouter spaces routing calls and enforces the daily quota.
type RateLimitedRouter struct {
	inner   model.Router
	limiter *Limiter
	quota   *DailyQuota
}

// NewRateLimitedRouter wraps a router. quota may be nil.
func NewRateLimitedRouter(inner model.Router, limiter *Limiter, quota *DailyQuota) *RateLimitedRouter {
	return &RateLimitedRouter{inner: inner, limiter: limiter, quota: quota}
}

// BatchRoute checks the quota, waits for a slot, then delegates. One batch
// counts as one request.
func (r *RateLimitedRouter) BatchRoute(ctx context.Context, origin model.Coordinates, destinations []model.Coordinates) ([]*int, error) {
	if r.quota != nil {
		if err := r.quota.Take(1); err != nil {
			return nil, fmt.Errorf("routing: %w", err)
		}
	}
	if err := r.limiter.Wait(ctx, "routing"); err != nil {
		return nil, err
	}
	return r.inner.BatchRoute(ctx, origin, destinations)
}
