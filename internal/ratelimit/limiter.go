package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIHelloMoon represents the Hello Moon raffle event API
	APIHelloMoon API = "hellomoon"
	// APIMagicEden represents the Magic Eden marketplace API
	APIMagicEden API = "magiceden"
	// APISolanaRPC represents the cluster JSON-RPC endpoint
	APISolanaRPC API = "solana_rpc"
)

// DefaultLimits are conservative per-API request rates
var DefaultLimits = map[API]rate.Limit{
	// Hello Moon: 10 requests per second on the free tier
	APIHelloMoon: rate.Limit(10),
	// Magic Eden: 2 requests per second for unauthenticated callers
	APIMagicEden: rate.Limit(2),
	// Public RPC nodes allow about 40 requests per 10 seconds per IP
	APISolanaRPC: rate.Limit(4),
}

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a limiter with one token bucket per API
func New(limits map[API]rate.Limit) *Limiter {
	l := &Limiter{
		limiters: make(map[API]*rate.Limiter, len(limits)),
	}
	for api, limit := range limits {
		l.limiters[api] = rate.NewLimiter(limit, 1)
	}
	return l
}

// Unlimited creates a limiter that never blocks, for tests
func Unlimited() *Limiter {
	return New(map[API]rate.Limit{
		APIHelloMoon: rate.Inf,
		APIMagicEden: rate.Inf,
		APISolanaRPC: rate.Inf,
	})
}

// Set replaces the limit for api
func (l *Limiter) Set(api API, limit rate.Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[api] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}
