package web

import (
	"net/http"
	"strconv"

	"github.com/uninest/uninest/internal/enrollment"
)

// handleAPIEnrollments routes the enrollment endpoints:
//
//	GET    /api/enrollments[?active=]
//	GET    /api/enrollments/{id}
//	PATCH  /api/enrollments/{id}
//	DELETE /api/enrollments/{id}
//	POST   /api/enrollments/{id}/checkout
func (s *Server) handleAPIEnrollments(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/enrollments")
	a := caller(r)

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		var active *bool
		if v := r.URL.Query().Get("active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				apiError(w, "invalid active filter", http.StatusBadRequest)
				return
			}
			active = &b
		}
		list, err := s.enrollments.Mine(r.Context(), a, active)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		if list == nil {
			list = []*enrollment.Enrollment{}
		}
		apiJSON(w, list, http.StatusOK)

	case len(parts) == 1 && r.Method == http.MethodGet:
		e, err := s.enrollments.Get(r.Context(), a, parts[0])
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, e, http.StatusOK)

	case len(parts) == 1 && r.Method == http.MethodPatch:
		var p enrollment.Patch
		if !decodeBody(w, r, &p) {
			return
		}
		e, err := s.enrollments.Update(r.Context(), a, parts[0], p)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, e, http.StatusOK)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.enrollments.Delete(r.Context(), a, parts[0]); err != nil {
			serviceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 2 && parts[1] == "checkout" && r.Method == http.MethodPost:
		e, err := s.enrollments.Checkout(r.Context(), a, parts[0])
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, e, http.StatusOK)

	case len(parts) <= 1 || (len(parts) == 2 && parts[1] == "checkout"):
		methodNotAllowed(w)

	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}
