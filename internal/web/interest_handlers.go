package web

import (
	"net/http"

	"github.com/uninest/uninest/internal/booking"
	"github.com/uninest/uninest/internal/enrollment"
	"github.com/uninest/uninest/internal/rules"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending contacted rejected accepted archived"`
}

// handleAPIInterests routes the booking interest endpoints:
//
//	GET    /api/interests[?status=]
//	POST   /api/interests
//	GET    /api/interests/{id}
//	PATCH  /api/interests/{id}
//	DELETE /api/interests/{id}
//	POST   /api/interests/{id}/enroll
func (s *Server) handleAPIInterests(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/interests")
	a := caller(r)

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		status := r.URL.Query().Get("status")
		if status != "" && !rules.ValidStatus(status) {
			apiError(w, "invalid status", http.StatusBadRequest)
			return
		}
		list, err := s.interests.Mine(r.Context(), a, rules.InterestStatus(status))
		if err != nil {
			serviceError(w, r, err)
			return
		}
		if list == nil {
			list = []*booking.Interest{}
		}
		apiJSON(w, list, http.StatusOK)

	case len(parts) == 0 && r.Method == http.MethodPost:
		profile, err := s.callerProfile(r.Context(), a)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		var in booking.CreateInput
		if !decodeBody(w, r, &in) {
			return
		}
		in.StudentName = profile.FullName
		in.StudentEmail = profile.Email
		if in.StudentPhone == "" && profile.PhoneNumber != nil {
			in.StudentPhone = *profile.PhoneNumber
		}
		i, err := s.interests.Create(r.Context(), a, in)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, i, http.StatusCreated)

	case len(parts) == 1 && r.Method == http.MethodGet:
		i, err := s.interests.Get(r.Context(), a, parts[0])
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, i, http.StatusOK)

	case len(parts) == 1 && r.Method == http.MethodPatch:
		var req statusRequest
		if !decodeBody(w, r, &req) {
			return
		}
		i, err := s.interests.SetStatus(r.Context(), a, parts[0], rules.InterestStatus(req.Status))
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, i, http.StatusOK)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.interests.Delete(r.Context(), a, parts[0]); err != nil {
			serviceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 2 && parts[1] == "enroll" && r.Method == http.MethodPost:
		var in enrollment.EnrollInput
		if !decodeBody(w, r, &in) {
			return
		}
		e, err := s.enrollments.EnrollFromInterest(r.Context(), a, parts[0], in)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, e, http.StatusCreated)

	case len(parts) <= 1 || (len(parts) == 2 && parts[1] == "enroll"):
		methodNotAllowed(w)

	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}
