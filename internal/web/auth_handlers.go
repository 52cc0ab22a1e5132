package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/rules"
	"github.com/uninest/uninest/internal/user"
)

// loginSentMsg is returned whether or not the email is registered, so the
// response cannot be used to discover accounts.
const loginSentMsg = "If that email is registered, a login link has been sent. Check your inbox."

type registerRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	user.CreateInput
}

// registerSentMsg answers every accepted registration. An address that
// already has an account gets a login link instead of a second account.
const registerSentMsg = "Check your inbox for a login link."

// handleRegister creates an identity and its user document, then emails a
// login link. The response is the same whether or not the email was
// already registered.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	identity := &rules.Auth{UID: uuid.NewString(), Email: email}

	if err := s.users.CheckCreate(identity, req.CreateInput); err != nil {
		serviceError(w, r, err)
		return
	}

	_, err := s.userRepo.GetByEmail(r.Context(), email)
	switch {
	case err == nil:
		slog.Info("registration for existing account", "email_domain", emailDomain(email))
	case errors.Is(err, user.ErrNotFound):
		u, err := s.users.Create(r.Context(), identity, req.CreateInput)
		if err != nil && !errors.Is(err, user.ErrExists) {
			serviceError(w, r, err)
			return
		}
		if u != nil {
			slog.Info("user registered", "uid", u.UID, "role", u.Role)
		}
	default:
		serviceError(w, r, err)
		return
	}

	s.sendLoginLink(r, email, s.mailer.SendMagicLink)
	apiJSON(w, map[string]string{"message": registerSentMsg}, http.StatusAccepted)
}

func emailDomain(email string) string {
	_, domain, _ := strings.Cut(email, "@")
	return domain
}

type loginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// handleLogin emails a magic link to a registered address.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.userRepo.GetByEmail(r.Context(), email); err == nil {
		s.sendLoginLink(r, email, s.mailer.SendMagicLink)
	} else if !errors.Is(err, user.ErrNotFound) {
		slog.Error("looking up login email", "err", err)
	}
	apiJSON(w, map[string]string{"message": loginSentMsg}, http.StatusOK)
}

func (s *Server) sendLoginLink(r *http.Request, email string, send func(email, token string) (string, error)) {
	token, err := s.tokens.Create(r.Context(), email)
	if err != nil {
		slog.Error("creating token", "err", err)
		return
	}
	if _, err := send(email, token); err != nil {
		slog.Error("sending magic link", "err", err)
	}
}

// handleVerify consumes a magic link token and starts a session.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.consumeToken(w, r)
	if !ok {
		return
	}
	if err := auth.StartSession(r.Context(), w, s.sessions, uid); err != nil {
		slog.Error("creating session", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("login success", "uid", uid, "method", "magic_link")
	apiJSON(w, map[string]string{"status": "ok", "uid": uid}, http.StatusOK)
}

// consumeToken resolves the ?token= query to a uid, writing the error
// response on failure.
func (s *Server) consumeToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return "", false
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, "invalid login link", http.StatusBadRequest)
		return "", false
	}
	email, err := s.tokens.Consume(r.Context(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		apiError(w, "invalid or expired login link, please request a new one", http.StatusUnauthorized)
		return "", false
	}
	if err != nil {
		serviceError(w, r, err)
		return "", false
	}
	u, err := s.userRepo.GetByEmail(r.Context(), email)
	if err != nil {
		serviceError(w, r, err)
		return "", false
	}
	return u.UID, true
}

// handleLogout destroys the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := auth.EndSession(w, r, s.sessions); err != nil {
		slog.Error("destroying session", "err", err)
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
