package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type seen struct {
	uid    string
	method Method
}

func testMiddleware(t *testing.T) (*Middleware, *SessionStore, *APIKeyStore, *seen) {
	t.Helper()
	d := testDB(t)
	sessions := NewSessionStore(d)
	keys := NewAPIKeyStore(d)
	return NewMiddleware(sessions, keys, identities), sessions, keys, &seen{}
}

func recordCaller(s *seen) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a := FromContext(r.Context()); a != nil {
			s.uid = a.UID
		}
		s.method = MethodFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAnonymous(t *testing.T) {
	m, _, _, s := testMiddleware(t)
	w := httptest.NewRecorder()
	m.Handler(recordCaller(s)).ServeHTTP(w, httptest.NewRequest("GET", "/api/properties", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if s.uid != "" || s.method != MethodNone {
		t.Errorf("caller = %+v, want anonymous", s)
	}
}

func TestMiddlewareSession(t *testing.T) {
	m, sessions, _, s := testMiddleware(t)
	rec := httptest.NewRecorder()
	if err := StartSession(context.Background(), rec, sessions, "u1"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/me", nil)
	r.AddCookie(sessionCookie(t, rec))
	w := httptest.NewRecorder()
	m.Handler(recordCaller(s)).ServeHTTP(w, r)

	if s.uid != "u1" || s.method != MethodSession {
		t.Errorf("caller = %+v, want u1 via session", s)
	}
}

func TestMiddlewareAPIKey(t *testing.T) {
	m, _, keys, s := testMiddleware(t)
	raw, _, err := keys.Create(context.Background(), "u2", "cli")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/me", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	m.Handler(recordCaller(s)).ServeHTTP(w, r)

	if w.Code != http.StatusOK || s.uid != "u2" || s.method != MethodAPIKey {
		t.Errorf("status = %d, caller = %+v", w.Code, s)
	}
}

func TestMiddlewareRejectsBadBearer(t *testing.T) {
	m, _, _, s := testMiddleware(t)
	for _, header := range []string{"Basic abc", "Bearer un_nope"} {
		r := httptest.NewRequest("GET", "/api/me", nil)
		r.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		m.Handler(recordCaller(s)).ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestMiddlewareRateLimit(t *testing.T) {
	m, _, _, s := testMiddleware(t)
	h := m.Handler(recordCaller(s))

	var last int
	for range rateLimitMaxFail + 1 {
		r := httptest.NewRequest("GET", "/api/me", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		r.Header.Set("Authorization", "Bearer un_wrong")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after %d failures = %d, want 429", rateLimitMaxFail, last)
	}

	// Another address is unaffected.
	r := httptest.NewRequest("GET", "/api/me", nil)
	r.RemoteAddr = "10.0.0.2:5555"
	r.Header.Set("Authorization", "Bearer un_wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("other address: status = %d, want 401", w.Code)
	}
}
