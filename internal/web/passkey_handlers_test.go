package web

import (
	"net/http"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/uninest/uninest/internal/auth"
)

func TestPasskeyRegistrationNeedsSession(t *testing.T) {
	e := newTestEnv(t)
	amina := e.student("amina@example.com", "Amina")

	e.expect(request{method: http.MethodPost, path: "/passkey/register/begin"}, http.StatusUnauthorized)

	w := e.expect(request{method: http.MethodPost, path: "/passkey/register/begin", cookie: amina.cookie}, http.StatusOK)
	opts := decode[map[string]any](t, w)
	pk, ok := opts["publicKey"].(map[string]any)
	if !ok {
		t.Fatalf("no publicKey in %v", opts)
	}
	if rp, _ := pk["rp"].(map[string]any); rp["id"] != "localhost" {
		t.Errorf("rp = %v, want id localhost", pk["rp"])
	}
}

func TestPasskeyFinishWithoutCeremony(t *testing.T) {
	e := newTestEnv(t)
	amina := e.student("amina@example.com", "Amina")

	e.expect(request{method: http.MethodPost, path: "/passkey/register/finish", cookie: amina.cookie}, http.StatusBadRequest)
	e.expect(request{method: http.MethodPost, path: "/passkey/login/finish"}, http.StatusBadRequest)
}

func TestPasskeyBeginLogin(t *testing.T) {
	e := newTestEnv(t)
	w := e.expect(request{method: http.MethodPost, path: "/passkey/login/begin"}, http.StatusOK)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == ceremonyCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no ceremony cookie set")
	}
	if _, ok := decode[map[string]any](t, w)["publicKey"]; !ok {
		t.Error("no publicKey in assertion options")
	}

	e.expect(request{method: http.MethodGet, path: "/passkey/login/begin"}, http.StatusMethodNotAllowed)
}

func TestPasskeyCredentials(t *testing.T) {
	e := newTestEnv(t)
	amina := e.student("amina@example.com", "Amina")
	brian := e.student("brian@example.com", "Brian")

	store := auth.NewPasskeyStore(e.db)
	if err := store.Save(t.Context(), amina.uid, "Laptop", &webauthn.Credential{ID: []byte{0xab, 0xcd}}); err != nil {
		t.Fatal(err)
	}

	e.expect(request{method: http.MethodGet, path: "/passkey/credentials"}, http.StatusUnauthorized)

	w := e.expect(request{method: http.MethodGet, path: "/passkey/credentials", cookie: amina.cookie}, http.StatusOK)
	got := decode[[]passkeyInfo](t, w)
	if len(got) != 1 || got[0].ID != "abcd" || got[0].Name != "Laptop" {
		t.Fatalf("credentials = %+v", got)
	}

	e.expect(request{method: http.MethodDelete, path: "/passkey/credentials/abcd", cookie: brian.cookie}, http.StatusNotFound)
	e.expect(request{method: http.MethodDelete, path: "/passkey/credentials/abcd", cookie: amina.cookie}, http.StatusNoContent)

	w = e.expect(request{method: http.MethodGet, path: "/passkey/credentials", cookie: amina.cookie}, http.StatusOK)
	if got := decode[[]passkeyInfo](t, w); len(got) != 0 {
		t.Errorf("credentials after delete = %+v", got)
	}
}
