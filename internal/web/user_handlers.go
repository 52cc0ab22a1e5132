package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/uninest/uninest/internal/rules"
	"github.com/uninest/uninest/internal/user"
)

// callerProfile loads the caller's own user document. A signed-in identity
// without a document has not finished registering.
func (s *Server) callerProfile(ctx context.Context, a *rules.Auth) (*user.User, error) {
	if a == nil {
		return nil, rules.ErrUnauthenticated
	}
	u, err := s.userRepo.Get(ctx, a.UID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, rules.ErrPermissionDenied
	}
	return u, err
}

// handleMe serves the caller's own document:
//
//	GET    /api/me
//	PATCH  /api/me
//	POST   /api/me/saved/{propertyID}
//	DELETE /api/me/saved/{propertyID}
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	a := caller(r)
	parts := splitPath(r.URL.Path, "/api/me")

	switch {
	case len(parts) == 0:
		switch r.Method {
		case http.MethodGet:
			u, err := s.callerProfile(r.Context(), a)
			if err != nil {
				serviceError(w, r, err)
				return
			}
			apiJSON(w, u, http.StatusOK)
		case http.MethodPatch:
			if a == nil {
				serviceError(w, r, rules.ErrUnauthenticated)
				return
			}
			var p user.Patch
			if !decodeBody(w, r, &p) {
				return
			}
			u, err := s.users.Update(r.Context(), a, a.UID, p)
			if err != nil {
				serviceError(w, r, err)
				return
			}
			apiJSON(w, u, http.StatusOK)
		case http.MethodDelete:
			if a == nil {
				serviceError(w, r, rules.ErrUnauthenticated)
				return
			}
			if err := s.users.Delete(r.Context(), a, a.UID); err != nil {
				serviceError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 2 && parts[0] == "saved":
		var (
			u   *user.User
			err error
		)
		switch r.Method {
		case http.MethodPost:
			u, err = s.users.SaveProperty(r.Context(), a, parts[1])
		case http.MethodDelete:
			u, err = s.users.UnsaveProperty(r.Context(), a, parts[1])
		default:
			methodNotAllowed(w)
			return
		}
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, u, http.StatusOK)

	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// handleUsers serves GET /api/users/{uid}.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/users")
	if len(parts) != 1 {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	a := caller(r)
	if a == nil {
		serviceError(w, r, rules.ErrUnauthenticated)
		return
	}
	u, err := s.users.Get(r.Context(), a, parts[0])
	if err != nil {
		serviceError(w, r, err)
		return
	}
	apiJSON(w, u, http.StatusOK)
}
