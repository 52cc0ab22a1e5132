package web

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/user"
)

const (
	ceremonyCookie = "uninest_passkey"
	ceremonyTTL    = 5 * time.Minute
)

type ceremony struct {
	data    *webauthn.SessionData
	expires time.Time
}

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions auth.Sessions
	users    *user.Repository

	// In-flight ceremonies. Registrations are keyed by uid, logins by a
	// random id carried in a short-lived cookie.
	mu     sync.Mutex
	reg    map[string]ceremony
	logins map[string]ceremony
}

func newPasskeyHandlers(cfg auth.Config, passkeys *auth.PasskeyStore, sessions auth.Sessions, users *user.Repository) (*passkeyHandlers, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "UniNest",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{cfg.BaseURL},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:      wan,
		passkeys: passkeys,
		sessions: sessions,
		users:    users,
		reg:      make(map[string]ceremony),
		logins:   make(map[string]ceremony),
	}, nil
}

// put stores a ceremony and drops expired ones. Callers hold mu.
func put(m map[string]ceremony, key string, data *webauthn.SessionData) {
	now := time.Now()
	for k, c := range m {
		if now.After(c.expires) {
			delete(m, k)
		}
	}
	m[key] = ceremony{data: data, expires: now.Add(ceremonyTTL)}
}

func (h *passkeyHandlers) take(m map[string]ceremony, key string) *webauthn.SessionData {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := m[key]
	delete(m, key)
	if !ok || time.Now().After(c.expires) {
		return nil
	}
	return c.data
}

func (h *passkeyHandlers) passkeyUser(r *http.Request, uid, email string) (*auth.PasskeyUser, error) {
	creds, err := h.passkeys.WebAuthnCredentials(r.Context(), uid)
	if err != nil {
		return nil, err
	}
	return auth.NewPasskeyUser(uid, email, creds), nil
}

// sessionCaller returns the caller when the request carries a browser
// session, writing 401 otherwise.
func sessionCaller(w http.ResponseWriter, r *http.Request) (uid, email string, ok bool) {
	a := caller(r)
	if a == nil || auth.MethodFrom(r.Context()) != auth.MethodSession {
		apiError(w, "session required", http.StatusUnauthorized)
		return "", "", false
	}
	return a.UID, a.Email, true
}

// handleBeginRegistration starts passkey registration for the signed-in user.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	uid, email, ok := sessionCaller(w, r)
	if !ok {
		return
	}

	pu, err := h.passkeyUser(r, uid, email)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Exclude existing credentials so the same key is not registered twice.
	existing := pu.WebAuthnCredentials()
	exclude := make([]protocol.CredentialDescriptor, len(existing))
	for i, c := range existing {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(pu,
		webauthn.WithExclusions(exclude),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		slog.Error("beginning registration", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	put(h.reg, uid, session)
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	uid, email, ok := sessionCaller(w, r)
	if !ok {
		return
	}

	session := h.take(h.reg, uid)
	if session == nil {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	pu, err := h.passkeyUser(r, uid, email)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(pu, *session, r)
	if err != nil {
		slog.Warn("finishing registration", "uid", uid, "err", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.passkeys.Save(r.Context(), uid, name, credential); err != nil {
		slog.Error("saving credential", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("passkey registered", "uid", uid)
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	id := hex.EncodeToString(b)

	h.mu.Lock()
	put(h.logins, id, session)
	h.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     ceremonyCookie,
		Value:    id,
		Path:     "/passkey/",
		MaxAge:   int(ceremonyTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin completes a passkey login and starts a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	cookie, err := r.Cookie(ceremonyCookie)
	if err != nil {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}
	session := h.take(h.logins, cookie.Value)
	if session == nil {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	// The user handle is the uid.
	var uid string
	resolve := func(rawID, userHandle []byte) (webauthn.User, error) {
		email, err := h.users.Email(r.Context(), string(userHandle))
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		pu, err := h.passkeyUser(r, string(userHandle), email)
		if err != nil {
			return nil, err
		}
		uid = pu.UID()
		return pu, nil
	}

	_, cred, err := h.wan.FinishPasskeyLogin(resolve, *session, r)
	if err != nil {
		slog.Warn("finishing passkey login", "err", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}
	if cred.Authenticator.CloneWarning {
		slog.Warn("passkey sign count went backwards", "uid", uid)
	}
	if err := h.passkeys.Touch(r.Context(), uid, cred); err != nil {
		slog.Warn("updating passkey after login", "uid", uid, "err", err)
	}

	if err := auth.StartSession(r.Context(), w, h.sessions, uid); err != nil {
		slog.Error("creating session", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "uid", uid, "method", "passkey")
	apiJSON(w, map[string]string{"status": "ok", "uid": uid}, http.StatusOK)
}

type passkeyInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// handleCredentials lists the caller's passkeys, or deletes one with
// DELETE /passkey/credentials/{id}.
func (h *passkeyHandlers) handleCredentials(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := sessionCaller(w, r)
	if !ok {
		return
	}

	parts := splitPath(r.URL.Path, "/passkey/credentials")
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		stored, err := h.passkeys.List(r.Context(), uid)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		out := make([]passkeyInfo, len(stored))
		for i, sc := range stored {
			out[i] = passkeyInfo{ID: sc.ID, Name: sc.Name, CreatedAt: sc.CreatedAt, LastUsedAt: sc.LastUsedAt}
		}
		apiJSON(w, out, http.StatusOK)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := h.passkeys.Delete(r.Context(), uid, parts[0]); err != nil {
			serviceError(w, r, err)
			return
		}
		slog.Info("passkey deleted", "uid", uid, "id", parts[0])
		w.WriteHeader(http.StatusNoContent)

	case len(parts) <= 1:
		methodNotAllowed(w)

	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}
