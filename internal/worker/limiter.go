package worker

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused key keeps its bucket
const DefaultIdleTTL = 10 * time.Minute

type keyRate struct {
	limit rate.Limit
	burst int
}

// Limiter rate limits work per key: an entity id for batch verification, a
// client address for the HTTP API. Keys idle longer than the TTL are evicted
type Limiter struct {
	limiters     *gocache.Cache
	idleTTL      time.Duration
	overrides    map[string]keyRate
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter with the default idle TTL
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return NewLimiterWithTTL(requestsPerSecond, burst, DefaultIdleTTL)
}

// NewLimiterWithTTL creates a rate limiter whose per-key buckets expire after
// idleTTL without use. A key is never kept for less than the time its drained
// bucket needs to refill, so eviction cannot hand out a fresh burst early
func NewLimiterWithTTL(requestsPerSecond float64, burst int, idleTTL time.Duration) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	return &Limiter{
		limiters:     gocache.New(idleTTL, idleTTL),
		idleTTL:      idleTTL,
		overrides:    make(map[string]keyRate),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until key may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// Allow reports whether key may proceed now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// SetKeyRate sets a custom rate for one key. The override outlives eviction
func (l *Limiter) SetKeyRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	kr := keyRate{limit: rate.Limit(requestsPerSecond), burst: burst}
	l.overrides[key] = kr
	l.limiters.Set(key, rate.NewLimiter(kr.limit, kr.burst), l.ttl(kr))
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	return l.limiters.ItemCount()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	kr, ok := l.overrides[key]
	if !ok {
		kr = keyRate{limit: l.defaultRate, burst: l.defaultBurst}
	}

	if v, found := l.limiters.Get(key); found {
		limiter := v.(*rate.Limiter)
		l.limiters.Set(key, limiter, l.ttl(kr))
		return limiter
	}

	limiter := rate.NewLimiter(kr.limit, kr.burst)
	l.limiters.Set(key, limiter, l.ttl(kr))

	return limiter
}

func (l *Limiter) ttl(kr keyRate) time.Duration {
	if kr.limit <= 0 {
		return gocache.NoExpiration
	}
	if kr.limit == rate.Inf {
		return l.idleTTL
	}

	refill := time.Duration(float64(kr.burst) / float64(kr.limit) * float64(time.Second))
	if refill > l.idleTTL {
		return refill
	}
	return l.idleTTL
}
