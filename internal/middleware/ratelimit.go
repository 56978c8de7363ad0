package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"hero-tracker/internal/constants"

	"github.com/rs/zerolog"
)

type clientWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter enforces a fixed-window request budget per client IP.
// Inactive clients are swept periodically so the counter map stays
// bounded.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	budget  int
	window  time.Duration
	logger  zerolog.Logger
	stop    chan struct{}
}

func NewRateLimiter(logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		budget:  constants.RateLimitBudget,
		window:  constants.RateLimitWindow,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

// StartSweeper launches the background sweep. Besides the refresh
// schedule this is the only recurring maintenance task.
func (rl *RateLimiter) StartSweeper() {
	go func() {
		ticker := time.NewTicker(constants.RateLimitSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()
}

func (rl *RateLimiter) StopSweeper() {
	close(rl.stop)
}

func (rl *RateLimiter) sweep() {
	now := time.Now()
	rl.mu.Lock()
	before := len(rl.clients)
	for ip, w := range rl.clients {
		if now.After(w.resetAt) {
			delete(rl.clients, ip)
		}
	}
	after := len(rl.clients)
	rl.mu.Unlock()

	if before != after {
		rl.logger.Debug().Int("removed", before-after).Msg("rate limiter swept inactive clients")
	}
}

// Allow counts one request for the client and reports whether it stays
// within budget.
func (rl *RateLimiter) Allow(clientIP string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[clientIP]
	if !ok || now.After(w.resetAt) {
		rl.clients[clientIP] = &clientWindow{count: 1, resetAt: now.Add(rl.window)}
		return true
	}
	w.count++
	return w.count <= rl.budget
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
