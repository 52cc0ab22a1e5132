package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func (e *testEnv) upload(path string, data []byte, contentType string, a *account) *httptest.ResponseRecorder {
	e.t.Helper()
	r := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(data))
	r.Header.Set("Content-Type", contentType)
	if a != nil {
		r.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

func TestFileRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	amina := e.student("amina@example.com", "Amina")
	path := "/files/profilePictures/" + amina.uid + "/me.png"
	png := []byte("\x89PNG fake image")

	if w := e.upload(path, png, "image/png", &amina); w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}

	// Profile pictures are public.
	w := e.expect(request{method: http.MethodGet, path: path}, http.StatusOK)
	if !bytes.Equal(w.Body.Bytes(), png) {
		t.Errorf("body = %q, want %q", w.Body.Bytes(), png)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}

	e.expect(request{method: http.MethodDelete, path: path}, http.StatusForbidden)
	e.expect(request{method: http.MethodDelete, path: path, cookie: amina.cookie}, http.StatusNoContent)
	e.expect(request{method: http.MethodGet, path: path}, http.StatusNotFound)
}

func TestFileRules(t *testing.T) {
	e := newTestEnv(t)
	amina := e.student("amina@example.com", "Amina")
	brian := e.student("brian@example.com", "Brian")
	doc := "/files/userDocs/" + amina.uid + "/studentId/card.pdf"

	tests := []struct {
		name string
		path string
		ct   string
		as   *account
		size int
		want int
	}{
		{"anonymous", "/files/profilePictures/" + amina.uid + "/a.png", "image/png", nil, 10, http.StatusForbidden},
		{"other user", "/files/profilePictures/" + amina.uid + "/a.png", "image/png", &brian, 10, http.StatusForbidden},
		{"wrong type", "/files/profilePictures/" + amina.uid + "/a.txt", "text/plain", &amina, 10, http.StatusForbidden},
		{"too large", "/files/profilePictures/" + amina.uid + "/a.png", "image/png", &amina, 3 << 20, http.StatusForbidden},
		{"unknown layout", "/files/other/" + amina.uid + "/a.png", "image/png", &amina, 10, http.StatusForbidden},
		{"own document", doc, "application/pdf", &amina, 10, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.upload(tt.path, make([]byte, tt.size), tt.ct, tt.as)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	// Identity documents are private to their owner.
	e.expect(request{method: http.MethodGet, path: doc}, http.StatusForbidden)
	e.expect(request{method: http.MethodGet, path: doc, cookie: brian.cookie}, http.StatusForbidden)
	e.expect(request{method: http.MethodGet, path: doc, cookie: amina.cookie}, http.StatusOK)
}
