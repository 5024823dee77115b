package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiters keeps one token bucket per client. Buckets idle for longer
// than idleTTL are dropped by Cleanup.
type ClientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewClientLimiters(requestsPerSecond float64, burst int, idleTTL time.Duration) *ClientLimiters {
	return &ClientLimiters{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Allow consumes a token for the client and reports the tokens left.
func (c *ClientLimiters) Allow(clientID string) (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.limiters[clientID]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(c.rate, c.burst)}
		c.limiters[clientID] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

// Cleanup removes idle clients and returns how many remain.
func (c *ClientLimiters) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.idleTTL)
	for id, entry := range c.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(c.limiters, id)
		}
	}
	return len(c.limiters)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (c *ClientLimiters) StartCleanup(ctx context.Context, interval time.Duration, onCleanup func(remaining int)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				remaining := c.Cleanup()
				if onCleanup != nil {
					onCleanup(remaining)
				}
			}
		}
	}()
}

// Stats returns limiter statistics
func (c *ClientLimiters) Stats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]interface{}{
		"clients":             len(c.limiters),
		"requests_per_second": float64(c.rate),
		"burst":               c.burst,
		"idle_ttl_seconds":    c.idleTTL.Seconds(),
	}
}
