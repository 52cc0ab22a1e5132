package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/db"
)

type testEnv struct {
	t   *testing.T
	db  *sql.DB
	srv *Server
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	srv, err := NewServer(d, auth.Config{DevMode: true, BaseURL: "http://localhost:8080"}, opts...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testEnv{t: t, db: d, srv: srv}
}

// request describes one call against the server.
type request struct {
	method string
	path   string
	body   any
	cookie *http.Cookie
	bearer string
}

func (e *testEnv) do(req request) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}
	if req.bearer != "" {
		r.Header.Set("Authorization", "Bearer "+req.bearer)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

// expect runs req and fails unless it returns status.
func (e *testEnv) expect(req request, status int) *httptest.ResponseRecorder {
	e.t.Helper()
	w := e.do(req)
	if w.Code != status {
		e.t.Fatalf("%s %s: status = %d, want %d; body: %s", req.method, req.path, w.Code, status, w.Body.String())
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// latestToken returns the newest magic link token issued to email.
func (e *testEnv) latestToken(email string) string {
	e.t.Helper()
	var token string
	if err := e.db.QueryRow(
		"SELECT token FROM auth_tokens WHERE email = ? ORDER BY id DESC LIMIT 1", email,
	).Scan(&token); err != nil {
		e.t.Fatalf("reading token for %s: %v", email, err)
	}
	return token
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "uninest_session" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

type account struct {
	uid    string
	email  string
	cookie *http.Cookie
}

// signUp registers email with role and signs in through the magic link.
func (e *testEnv) signUp(email, role, name string, extra map[string]any) account {
	e.t.Helper()
	body := map[string]any{"email": email, "role": role, "fullName": name}
	for k, v := range extra {
		body[k] = v
	}
	e.expect(request{method: http.MethodPost, path: "/auth/register", body: body}, http.StatusAccepted)

	w := e.expect(request{method: http.MethodGet, path: "/auth/verify?token=" + e.latestToken(email)}, http.StatusOK)
	resp := decode[map[string]string](e.t, w)
	return account{uid: resp["uid"], email: email, cookie: sessionCookie(e.t, w)}
}

func (e *testEnv) landlord() account {
	return e.signUp("lydia@example.com", "landlord", "Lydia Wanjiru", map[string]any{"phoneNumber": "+254700000001"})
}

func (e *testEnv) student(email, name string) account {
	return e.signUp(email, "student", name, map[string]any{
		"phoneNumber": "+254711111111",
		"studentId":   "S-" + name,
		"university":  "University of Nairobi",
	})
}

// listing creates a property owned by a and returns its id.
func (e *testEnv) listing(a account, title string, rent int64) string {
	e.t.Helper()
	w := e.expect(request{
		method: http.MethodPost,
		path:   "/api/properties",
		cookie: a.cookie,
		body: map[string]any{
			"title":        title,
			"address":      "12 University Way",
			"city":         "Nairobi",
			"university":   "University of Nairobi",
			"propertyType": "hostel",
			"monthlyRent":  rent,
			"capacity":     4,
			"amenities":    []string{"wifi"},
		},
	}, http.StatusCreated)
	return decode[map[string]any](e.t, w)["id"].(string)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
