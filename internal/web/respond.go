package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/booking"
	"github.com/uninest/uninest/internal/enrollment"
	"github.com/uninest/uninest/internal/logging"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/review"
	"github.com/uninest/uninest/internal/rules"
	"github.com/uninest/uninest/internal/storage"
	"github.com/uninest/uninest/internal/user"
)

const maxBodyBytes = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

// decodeBody decodes a JSON body into v and validates it. It writes the
// error response and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			apiError(w, "request body required", http.StatusBadRequest)
			return false
		}
		apiError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := GetValidator().Struct(v); err != nil {
		apiJSON(w, map[string]any{
			"error":   "validation failed",
			"details": ParseErrors(err),
		}, http.StatusBadRequest)
		return false
	}
	return true
}

// serviceError maps a service error to its HTTP status.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rules.ErrUnauthenticated):
		apiError(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, rules.ErrPermissionDenied):
		apiError(w, "permission denied", http.StatusForbidden)
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, user.ErrUnknownProperty),
		errors.Is(err, property.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, enrollment.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, auth.ErrKeyNotFound),
		errors.Is(err, auth.ErrCredentialNotFound):
		apiError(w, "not found", http.StatusNotFound)
	case errors.Is(err, user.ErrExists):
		apiError(w, "user already exists", http.StatusConflict)
	case errors.Is(err, user.ErrStale):
		apiError(w, "user was modified concurrently, retry", http.StatusConflict)
	case errors.Is(err, review.ErrDuplicateReview):
		apiError(w, "you have already reviewed this property", http.StatusConflict)
	case errors.Is(err, property.ErrCounterConflict):
		apiError(w, "counter would go negative", http.StatusConflict)
	case errors.Is(err, enrollment.ErrInvalidInput),
		errors.Is(err, property.ErrInvalidType):
		apiError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrLengthRequired):
		apiError(w, "Content-Length required", http.StatusLengthRequired)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", logging.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
	}
}

// methodNotAllowed writes a 405.
func methodNotAllowed(w http.ResponseWriter) {
	apiError(w, "method not allowed", http.StatusMethodNotAllowed)
}

// splitPath trims prefix from the request path and splits the rest into
// segments. "/api/properties/abc/reviews" with prefix "/api/properties"
// gives ["abc", "reviews"].
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// caller returns the authenticated caller, or nil.
func caller(r *http.Request) *rules.Auth {
	return auth.FromContext(r.Context())
}
