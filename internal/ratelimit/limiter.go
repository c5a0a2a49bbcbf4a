// Package ratelimit provides per-client request limiting strategies behind a
// single Limiter interface.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/chempartner/paperdesk/config"
	"golang.org/x/time/rate"
)

// Limiter reports whether one more request for key is allowed right now.
type Limiter interface {
	Allow(key string) bool
}

// New builds the limiter selected by cfg.RateLimit.Strategy.
func New(cfg *config.Config) (Limiter, error) {
	rl := cfg.RateLimit
	switch rl.Strategy {
	case config.RateLimitFixedWindow, "":
		return NewFixedWindow(rl.Requests, rl.Window), nil
	case config.RateLimitTokenBucket:
		return NewTokenBucket(rl.Requests, rl.Window), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", rl.Strategy)
	}
}

// sweepEvery bounds how often idle keys are purged.
const sweepEvery = time.Minute

type window struct {
	start time.Time
	count int
}

// FixedWindow allows limit requests per key in each window, where a key's
// window opens on its first request.
type FixedWindow struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	windows   map[string]*window
	lastSweep time.Time
}

func NewFixedWindow(limit int, span time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  span,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *FixedWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

func (l *FixedWindow) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucket refills limit tokens evenly over window, with a burst of limit.
type TokenBucket struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	now       func() time.Time
	buckets   map[string]*bucket
	lastSweep time.Time
}

func NewTokenBucket(limit int, span time.Duration) *TokenBucket {
	return &TokenBucket{
		limit:     rate.Every(span / time.Duration(limit)),
		burst:     limit,
		idleAfter: span,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
	}
}

func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

func (l *TokenBucket) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		// An idle bucket has refilled completely, so dropping it is lossless.
		if now.Sub(b.lastSeen) >= l.idleAfter {
			delete(l.buckets, key)
		}
	}
}
