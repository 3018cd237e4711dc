package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// staleAfter is how long an idle client's bucket is kept.
const staleAfter = 10 * time.Minute

// RateLimiter is a per-client token bucket. Only requests that change widget
// state count against it; reads are never limited.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rate    float64
	burst   float64
	now     func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests per second per client with bursts up
// to burst.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   float64(burst),
		now:     time.Now,
	}
}

// Reserve takes a token for client. When none is left it returns false and
// the wait until the next token.
func (rl *RateLimiter) Reserve(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[client]
	if !ok {
		b = &tokenBucket{tokens: rl.burst, seen: now}
		rl.clients[client] = b
	}
	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.rate)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if rl.rate <= 0 {
		return false, staleAfter
	}
	wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))
	return false, wait
}

// Sweep drops clients idle for longer than staleAfter.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-staleAfter)
	dropped := 0
	for client, b := range rl.clients {
		if b.seen.Before(cutoff) {
			delete(rl.clients, client)
			dropped++
		}
	}
	return dropped
}

// Run sweeps periodically until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware rejects state-changing requests over the limit with 429 and a
// Retry-After header. It expects chi's RealIP middleware to run first.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := rl.Reserve(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests, please slow down"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
