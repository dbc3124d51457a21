package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket is an in-memory per-key limiter. Buckets idle for ten minutes
// are dropped by a janitor goroutine that stops with ctx.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket allows bursts of capacity and refills at perMinute tokens
// per minute.
func NewTokenBucket(ctx context.Context, perMinute, capacity int) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     float64(perMinute) / 60,
		capacity: float64(capacity),
		now:      time.Now,
	}
	go tb.cleanup(ctx)
	return tb
}

func (tb *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

func (tb *TokenBucket) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := tb.now().Add(-10 * time.Minute)
			for key, b := range tb.buckets {
				if b.last.Before(cutoff) {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		}
	}
}

// rateLimited is a huma operation middleware keyed by client IP. A failing
// limiter lets the request through.
func (s *server) rateLimited(api huma.API, retryAfter time.Duration) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.limiter == nil {
			next(ctx)
			return
		}

		key := clientIP(ctx.RemoteAddr())
		ok, err := s.limiter.Allow(ctx.Context(), key)
		if err != nil {
			s.logger.WarnContext(ctx.Context(), "rate limiter unavailable", "error", err)
			next(ctx)
			return
		}
		if !ok {
			ctx.SetHeader("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
		next(ctx)
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
