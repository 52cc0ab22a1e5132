package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func sessionStores(t *testing.T) map[string]Sessions {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })
	return map[string]Sessions{
		"sqlite": NewSessionStore(testDB(t)),
		"redis":  rs,
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("expected cookie named %q", cookieName)
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := StartSession(context.Background(), w, store, "u1"); err != nil {
				t.Fatalf("start: %v", err)
			}
			cookie := sessionCookie(t, w)
			if !cookie.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}

			r := httptest.NewRequest("GET", "/", nil)
			r.AddCookie(cookie)
			uid, err := SessionUID(r, store)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if uid != "u1" {
				t.Errorf("uid = %q, want u1", uid)
			}

			if err := EndSession(httptest.NewRecorder(), r, store); err != nil {
				t.Fatalf("end: %v", err)
			}
			if _, err := SessionUID(r, store); !errors.Is(err, ErrNoSession) {
				t.Errorf("after end: err = %v, want ErrNoSession", err)
			}
		})
	}
}

func TestSessionMissingOrBogus(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if _, err := SessionUID(r, store); !errors.Is(err, ErrNoSession) {
				t.Errorf("no cookie: err = %v", err)
			}
			r.AddCookie(&http.Cookie{Name: cookieName, Value: "bogus-session-id"})
			if _, err := SessionUID(r, store); !errors.Is(err, ErrNoSession) {
				t.Errorf("bogus cookie: err = %v", err)
			}
			if err := EndSession(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), store); err != nil {
				t.Errorf("end without cookie: %v", err)
			}
		})
	}
}

func TestSQLiteSessionExpiry(t *testing.T) {
	store := NewSessionStore(testDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, "u1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Lookup(ctx, id); !errors.Is(err, ErrNoSession) {
		t.Errorf("expired lookup: err = %v", err)
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

func TestRedisSessionExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	id, err := store.Create(ctx, "u1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.Lookup(ctx, id); !errors.Is(err, ErrNoSession) {
		t.Errorf("expired lookup: err = %v", err)
	}
}

func TestRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
