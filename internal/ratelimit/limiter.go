package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// countScript increments the counter and starts its window on the first hit,
// in one atomic step
var countScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Limiter is a fixed-window per-IP request counter in Redis.
//
// It keys on the address the router resolved for the request, so it is only
// as reliable as that address: behind a proxy, forwarded headers must be
// trusted (TRUST_PROXY) and the proxy must overwrite them.
type Limiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

// NewLimiter allows requests calls per IP and purpose within each window
func NewLimiter(client *redis.Client, requests int, window time.Duration) *Limiter {
	return &Limiter{
		client:   client,
		requests: requests,
		window:   window,
	}
}

// getIPKey generates the Redis key for an IP's counter
func getIPKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

// AllowIPRequestWithPurpose counts the request and reports whether it is
// still within ip's budget for purpose. The window starts with the first
// request and is not extended by later ones.
func (l *Limiter) AllowIPRequestWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := countScript.Run(ctx, l.client, []string{getIPKey(ip, purpose)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}

	return count <= int64(l.requests), nil
}
