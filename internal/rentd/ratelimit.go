package rentd

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimit is a token bucket setting: a sustained rate plus a burst.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// DefaultRateLimits are the per-method limits. Store-backed methods are
// tighter than the pure engine calls.
var DefaultRateLimits = map[string]RateLimit{
	MethodRenderTemplate: {PerSecond: 20, Burst: 40},
	MethodGetTemplate:    {PerSecond: 50, Burst: 100},
	MethodListTemplates:  {PerSecond: 50, Burst: 100},

	MethodExtract:   {PerSecond: 200, Burst: 400},
	MethodRender:    {PerSecond: 200, Burst: 400},
	MethodReconcile: {PerSecond: 200, Burst: 400},

	MethodPing: {PerSecond: 1000, Burst: 1000},
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
	rate       float64
	max        float64
	requests   int64
	denied     int64
}

func newTokenBucket(limit RateLimit) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(limit.Burst),
		lastUpdate: time.Now(),
		rate:       limit.PerSecond,
		max:        float64(limit.Burst),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests++
	b.refill(time.Now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	b.denied++
	return false
}

// refill must be called with mu held.
func (b *tokenBucket) refill(now time.Time) {
	b.tokens += now.Sub(b.lastUpdate).Seconds() * b.rate
	if b.tokens > b.max {
		b.tokens = b.max
	}
	b.lastUpdate = now
}

func (b *tokenBucket) counts() (requests, denied int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests, b.denied
}

// RateLimiter applies per-method token buckets to incoming RPCs.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	limits  map[string]RateLimit
	enabled bool
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithMethodLimits overrides limits for specific methods.
func WithMethodLimits(limits map[string]RateLimit) RateLimiterOption {
	return func(rl *RateLimiter) {
		for method, limit := range limits {
			rl.limits[method] = limit
		}
	}
}

// WithEnabled enables or disables limiting.
func WithEnabled(enabled bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.enabled = enabled
	}
}

// NewRateLimiter creates a limiter seeded with DefaultRateLimits.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		limits:  make(map[string]RateLimit, len(DefaultRateLimits)),
		enabled: true,
	}
	for method, limit := range DefaultRateLimits {
		rl.limits[method] = limit
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether a call to method may proceed. Methods without a
// configured limit are always allowed.
func (rl *RateLimiter) Allow(method string) bool {
	if !rl.enabled {
		return true
	}
	bucket := rl.bucket(method)
	if bucket == nil {
		return true
	}
	return bucket.allow()
}

func (rl *RateLimiter) bucket(method string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, ok := rl.buckets[method]; ok {
		return bucket
	}
	limit, ok := rl.limits[method]
	if !ok {
		return nil
	}
	bucket := newTokenBucket(limit)
	rl.buckets[method] = bucket
	return bucket
}

// Denied returns how many calls to method were rejected.
func (rl *RateLimiter) Denied(method string) int64 {
	rl.mu.Lock()
	bucket, ok := rl.buckets[method]
	rl.mu.Unlock()
	if !ok {
		return 0
	}
	_, denied := bucket.counts()
	return denied
}

// UnaryServerInterceptor rejects calls over the limit with ResourceExhausted.
func (rl *RateLimiter) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !rl.Allow(info.FullMethod) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for method %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}
