package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/user"
)

// handleCLIAuth emails a CLI login link. The link leads through
// /cli/auth/verify to /cli/auth/complete, which issues an API key.
func (s *Server) handleCLIAuth(w http.ResponseWriter, r *http.Request) {
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
		s.sendLoginLink(r, email, s.mailer.SendCLIMagicLink)
	} else if !errors.Is(err, user.ErrNotFound) {
		slog.Error("looking up cli login email", "err", err)
	}
	apiJSON(w, map[string]string{"message": loginSentMsg}, http.StatusOK)
}

// handleCLIAuthVerify consumes the token, creates a session and redirects
// to /cli/auth/complete.
func (s *Server) handleCLIAuthVerify(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.consumeToken(w, r)
	if !ok {
		return
	}
	if err := auth.StartSession(r.Context(), w, s.sessions, uid); err != nil {
		slog.Error("creating session", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/cli/auth/complete", http.StatusSeeOther)
}

// handleCLIAuthComplete issues an API key for the signed-in browser
// session. The raw key is shown once.
func (s *Server) handleCLIAuthComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	a := caller(r)
	if a == nil || auth.MethodFrom(r.Context()) != auth.MethodSession {
		apiError(w, "session required", http.StatusUnauthorized)
		return
	}

	rawKey, key, err := s.apiKeys.Create(r.Context(), a.UID, "CLI")
	if err != nil {
		slog.Error("creating api key", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("cli login", "uid", a.UID, "key_prefix", key.KeyPrefix)
	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKey: key}, http.StatusCreated)
}
