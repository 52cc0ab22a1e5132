package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/review"
)

// handleAPIProperties routes /api/properties and /api/properties/{id}[/reviews].
func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/properties")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			s.listProperties(w, r)
		case http.MethodPost:
			s.createProperty(w, r)
		default:
			methodNotAllowed(w)
		}
	case 1:
		switch r.Method {
		case http.MethodGet:
			p, err := s.properties.RecordView(r.Context(), caller(r), parts[0])
			if err != nil {
				serviceError(w, r, err)
				return
			}
			apiJSON(w, p, http.StatusOK)
		case http.MethodPatch:
			var patch property.Patch
			if !decodeBody(w, r, &patch) {
				return
			}
			p, err := s.properties.Update(r.Context(), caller(r), parts[0], patch)
			if err != nil {
				serviceError(w, r, err)
				return
			}
			apiJSON(w, p, http.StatusOK)
		case http.MethodDelete:
			if err := s.properties.Delete(r.Context(), caller(r), parts[0]); err != nil {
				serviceError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	case 2:
		if parts[1] != "reviews" {
			apiError(w, "not found", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.listReviews(w, r, parts[0])
		case http.MethodPost:
			s.createReview(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

func parseListOptions(q url.Values) (property.ListOptions, error) {
	opts := property.ListOptions{
		City:       q.Get("city"),
		University: q.Get("university"),
		LandlordID: q.Get("landlord"),
	}
	if v := q.Get("max_rent"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return opts, strconv.ErrSyntax
		}
		opts.MaxRent = &n
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, err
		}
		opts.AvailableOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, strconv.ErrSyntax
		}
		opts.Limit = n
	}
	return opts, nil
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		apiError(w, "invalid query parameter", http.StatusBadRequest)
		return
	}
	props, err := s.properties.List(r.Context(), caller(r), opts)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if props == nil {
		props = []*property.Property{}
	}
	apiJSON(w, props, http.StatusOK)
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	a := caller(r)
	profile, err := s.callerProfile(r.Context(), a)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	var in property.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.LandlordName == "" {
		in.LandlordName = profile.FullName
	}
	p, err := s.properties.Create(r.Context(), a, in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	apiJSON(w, p, http.StatusCreated)
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request, propertyID string) {
	reviews, err := s.reviews.List(r.Context(), caller(r), propertyID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*review.Review{}
	}
	apiJSON(w, reviews, http.StatusOK)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request, propertyID string) {
	a := caller(r)
	profile, err := s.callerProfile(r.Context(), a)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	var in review.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.StudentName = profile.FullName
	rv, err := s.reviews.Create(r.Context(), a, propertyID, in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	apiJSON(w, rv, http.StatusCreated)
}

// handleAPIReviews serves PATCH and DELETE /api/reviews/{id}.
func (s *Server) handleAPIReviews(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/reviews")
	if len(parts) != 1 {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var p review.Patch
		if !decodeBody(w, r, &p) {
			return
		}
		rv, err := s.reviews.Update(r.Context(), caller(r), parts[0], p)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, rv, http.StatusOK)
	case http.MethodDelete:
		if err := s.reviews.Delete(r.Context(), caller(r), parts[0]); err != nil {
			serviceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
