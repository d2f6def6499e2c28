package server

import (
	"sync"
	"time"
)

// staleAfter is how long an idle client bucket survives before the map
// sweep removes it.
const staleAfter = 10 * time.Minute

// sweepThreshold bounds the client map size before a sweep runs.
const sweepThreshold = 1024

// bucket tracks one client's remaining tokens.
type bucket struct {
	tokens float64
	last   time.Time
}

// rateLimiter is a per-client token bucket. Tokens refill at rps per
// second up to burst; each request consumes one.
type rateLimiter struct {
	mu      sync.Mutex
	rps     float64
	burst   float64
	clients map[string]*bucket
	now     func() time.Time
}

func newRateLimiter(rps, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		rps:     float64(rps),
		burst:   float64(burst),
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed, consuming a token when so.
func (rl *rateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[client]
	if !ok {
		if len(rl.clients) >= sweepThreshold {
			rl.sweep(now)
		}
		b = &bucket{tokens: rl.burst, last: now}
		rl.clients[client] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * rl.rps
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle past staleAfter. Callers hold the mutex.
func (rl *rateLimiter) sweep(now time.Time) {
	for client, b := range rl.clients {
		if now.Sub(b.last) > staleAfter {
			delete(rl.clients, client)
		}
	}
}
