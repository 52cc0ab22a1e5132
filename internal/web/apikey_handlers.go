package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/uninest/uninest/internal/auth"
)

type apiKeyCreateResponse struct {
	Key    string       `json:"key"` // raw key, shown once
	APIKey *auth.APIKey `json:"api_key"`
}

type createKeyRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// handleAPIKeysRoute routes /api/keys and /api/keys/{id}. Key management
// needs a browser session; an API key cannot mint or revoke keys.
func (s *Server) handleAPIKeysRoute(w http.ResponseWriter, r *http.Request) {
	a := caller(r)
	if a == nil || auth.MethodFrom(r.Context()) != auth.MethodSession {
		apiError(w, "session required", http.StatusUnauthorized)
		return
	}

	parts := splitPath(r.URL.Path, "/api/keys")
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		keys, err := s.apiKeys.List(r.Context(), a.UID)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		if keys == nil {
			keys = []auth.APIKey{}
		}
		apiJSON(w, keys, http.StatusOK)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var req createKeyRequest
		if !decodeBody(w, r, &req) {
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = "API Key"
		}
		raw, key, err := s.apiKeys.Create(r.Context(), a.UID, name)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		slog.Info("api key created", "uid", a.UID, "key_prefix", key.KeyPrefix)
		apiJSON(w, apiKeyCreateResponse{Key: raw, APIKey: key}, http.StatusCreated)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			apiError(w, "invalid key ID", http.StatusBadRequest)
			return
		}
		if err := s.apiKeys.Delete(r.Context(), a.UID, id); err != nil {
			serviceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) <= 1:
		methodNotAllowed(w)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}
