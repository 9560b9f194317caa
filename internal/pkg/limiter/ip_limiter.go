/*
Package limiter throttles new connections per client address.

Each address gets a token bucket (golang.org/x/time/rate). Buckets that have
refilled completely are dropped by a background sweep so the map does not grow
with every address that ever connected.
*/
package limiter

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"claymud/internal/pkg/logx"
)

const sweepInterval = 3 * time.Minute

// IPRateLimiter hands out one rate.Limiter per address.
type IPRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

// NewIPRateLimiter creates a limiter allowing r events per second with burst b
// per address. The sweep goroutine exits when ctx is cancelled.
func NewIPRateLimiter(ctx context.Context, r rate.Limit, b int) *IPRateLimiter {
	l := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}
	go l.sweep(ctx)
	return l
}

// Allow reports whether addr may open another connection now. addr may carry
// a port; only the host part is used.
func (l *IPRateLimiter) Allow(addr string) bool {
	return l.GetLimiter(HostOf(addr)).Allow()
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limits[ip]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.limits[ip] = lim
	}
	return lim
}

// Len reports how many addresses are tracked.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limits)
}

func (l *IPRateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, remaining := l.prune(now)
			if removed > 0 {
				logx.Info("rate limiter sweep", "removed", removed, "remaining", remaining)
			}
		}
	}
}

func (l *IPRateLimiter) prune(now time.Time) (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, lim := range l.limits {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(l.limits, ip)
			removed++
		}
	}
	return removed, len(l.limits)
}

// HostOf strips the port from addr and returns a stable key for empty input.
func HostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "" {
		return "unknown_ip"
	}
	return host
}
