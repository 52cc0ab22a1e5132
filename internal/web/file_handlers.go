package web

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// handleFiles serves PUT, GET and DELETE on /files/{path}. Uploads must
// declare Content-Length and Content-Type.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/files/")
	if path == "" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPut:
		ct := r.Header.Get("Content-Type")
		if err := s.files.Upload(r.Context(), caller(r), path, r.Body, r.ContentLength, ct); err != nil {
			serviceError(w, r, err)
			return
		}
		apiJSON(w, map[string]any{"path": path, "size": r.ContentLength, "contentType": ct}, http.StatusCreated)

	case http.MethodGet:
		obj, err := s.files.Download(r.Context(), caller(r), path)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		defer func() {
			if err := obj.Body.Close(); err != nil {
				slog.Warn("closing object", "path", path, "err", err)
			}
		}()
		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, obj.Body); err != nil {
			slog.Warn("streaming object", "path", path, "err", err)
		}

	case http.MethodDelete:
		if err := s.files.Delete(r.Context(), caller(r), path); err != nil {
			serviceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
