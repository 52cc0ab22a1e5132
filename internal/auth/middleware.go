package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// Method is how a request authenticated.
type Method int

const (
	MethodNone Method = iota
	MethodSession
	MethodAPIKey
)

type ctxKey struct{}

type caller struct {
	auth   *rules.Auth
	method Method
}

// WithAuth returns a context carrying auth.
func WithAuth(ctx context.Context, auth *rules.Auth, method Method) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller{auth: auth, method: method})
}

// FromContext returns the caller, or nil for anonymous requests.
func FromContext(ctx context.Context) *rules.Auth {
	c, _ := ctx.Value(ctxKey{}).(caller)
	return c.auth
}

// MethodFrom returns how the request authenticated.
func MethodFrom(ctx context.Context) Method {
	c, _ := ctx.Value(ctxKey{}).(caller)
	return c.method
}

// Identities resolves a uid to the email it registered with.
type Identities interface {
	Email(ctx context.Context, uid string) (string, error)
}

// Middleware resolves the caller from a bearer API key or a session cookie.
// Requests without credentials continue anonymously; services decide what
// anonymous callers may do.
type Middleware struct {
	sessions   Sessions
	keys       *APIKeyStore
	identities Identities
	limiter    *rateLimiter
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(sessions Sessions, keys *APIKeyStore, identities Identities) *Middleware {
	return &Middleware{
		sessions:   sessions,
		keys:       keys,
		identities: identities,
		limiter:    newRateLimiter(),
	}
}

// Handler wraps next. A bearer header that fails validation is rejected
// with 401, and repeated failures from one address with 429.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if header := r.Header.Get("Authorization"); header != "" {
			key, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "bearer token required")
				return
			}
			ip := clientIP(r)
			if m.limiter.limited(ip) {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			uid, err := m.keys.Validate(ctx, key)
			if err != nil {
				slog.Error("validating api key", "err", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if uid == "" {
				m.limiter.recordFailure(ip)
				slog.Info("invalid api key", "ip", ip)
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			auth, err := m.resolve(ctx, uid)
			if err != nil {
				slog.Error("resolving api key owner", "uid", uid, "err", err)
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(ctx, auth, MethodAPIKey)))
			return
		}

		uid, err := SessionUID(r, m.sessions)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				slog.Error("validating session", "err", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		auth, err := m.resolve(ctx, uid)
		if err != nil {
			slog.Warn("session for unknown user", "uid", uid, "err", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuth(ctx, auth, MethodSession)))
	})
}

func (m *Middleware) resolve(ctx context.Context, uid string) (*rules.Auth, error) {
	email, err := m.identities.Email(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &rules.Auth{UID: uid, Email: email}, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// rateLimiter tracks failed API key attempts per address.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// prune drops attempts outside the window. Callers hold mu.
func (rl *rateLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rateLimitMaxFail
}

func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.prune(ip), rl.now())
}
