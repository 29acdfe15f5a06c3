package artisans

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter hands out a token bucket per client IP.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*limitedClient
	lastPrune time.Time
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*limitedClient),
	}
}

// Allow reports whether client may make a request now.
func (l *RateLimiter) Allow(client string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	l.pruneLocked(now)
	c, ok := l.clients[client]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = c
	}
	c.lastSeen = now
	l.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < limiterIdleTTL {
		return
	}
	l.lastPrune = now
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
