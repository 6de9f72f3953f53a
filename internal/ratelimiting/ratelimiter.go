package ratelimiting

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Consume(key string) bool
}

type tokenBucketRateLimiter struct {
	limiters        *ttlcache.Cache[string, *rate.Limiter]
	refillPerSecond float64
	burstSize       int
}

func (l *tokenBucketRateLimiter) Consume(key string) bool {
	limiter, _ := l.limiters.GetOrSet(key, rate.NewLimiter(rate.Limit(l.refillPerSecond), l.burstSize))
	return limiter.Value().Allow()
}

type RefillPerSecond float64
type BurstSize int

// NewTokenBucketRateLimiter keeps one token bucket per key, dropping idle
// buckets after 30 minutes. Call stop to end the expiry janitor.
func NewTokenBucketRateLimiter(refillPerSecond RefillPerSecond, burstSize BurstSize) (limiter RateLimiter, stop func()) {
	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](30 * time.Minute),
	)
	go limiters.Start()

	return &tokenBucketRateLimiter{
		limiters:        limiters,
		refillPerSecond: float64(refillPerSecond),
		burstSize:       int(burstSize),
	}, limiters.Stop
}

type RequestRateLimiter interface {
	Consume(r *http.Request) bool
}

type requestBasedRateLimiter struct {
	limiter RateLimiter
	keyFunc func(r *http.Request) string
}

func (l *requestBasedRateLimiter) Consume(r *http.Request) bool {
	return l.limiter.Consume(l.keyFunc(r))
}

func NewRequestBasedRateLimiter(limiter RateLimiter, keyFunc func(r *http.Request) string) RequestRateLimiter {
	return &requestBasedRateLimiter{
		limiter: limiter,
		keyFunc: keyFunc,
	}
}

func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// No port
		host = r.RemoteAddr
	}

	return fmt.Sprintf("ip: %s", host)
}
