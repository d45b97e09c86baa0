package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// limiter counts requests per client over a fixed window. Expired windows
// are pruned whenever a new one opens, so the map stays bounded by the set
// of clients active in the current window.
type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*clientWindow
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
	}
}

func (l *limiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cw, ok := l.clients[client]
	if !ok || now.After(cw.resetAt) {
		l.prune(now)
		cw = &clientWindow{resetAt: now.Add(l.window)}
		l.clients[client] = cw
	}
	if cw.count >= l.limit {
		return false
	}
	cw.count++
	return true
}

func (l *limiter) prune(now time.Time) {
	for client, cw := range l.clients {
		if now.After(cw.resetAt) {
			delete(l.clients, client)
		}
	}
}

// RateLimit rejects clients that exceed limit requests per window with 429.
// The generation endpoint is already serialized by the single-flight guard,
// so this mostly keeps a misbehaving polling loop on the catalog read
// endpoints from monopolizing the service.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientAddr(r)) {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr keys the limiter by client IP. RealIP runs earlier in the
// chain and has already folded forwarding headers into RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
