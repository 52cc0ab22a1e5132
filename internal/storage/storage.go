// Package storage stores uploaded files (property images, identity
// documents, profile pictures) behind the storage rules.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/uninest/uninest/internal/rules"
)

var (
	// ErrNotFound is returned when no object exists at a path.
	ErrNotFound = errors.New("file not found")
	// ErrLengthRequired is returned for uploads of unknown size.
	ErrLengthRequired = errors.New("upload size required")
)

// Object is a stored file opened for reading. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Backend is an object store.
type Backend interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, path string) (*Object, error)
	Remove(ctx context.Context, path string) error
}

// Service applies the storage rules around a backend.
type Service struct {
	backend Backend
}

// NewService creates a storage service over backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Upload stores size bytes from r at path.
func (s *Service) Upload(ctx context.Context, auth *rules.Auth, path string, r io.Reader, size int64, contentType string) error {
	if size < 0 {
		return ErrLengthRequired
	}
	f := rules.File{Path: path, Size: size, ContentType: contentType}
	if err := rules.CheckFile(auth, rules.FileWrite, f); err != nil {
		return err
	}
	if err := s.backend.Put(ctx, path, io.LimitReader(r, size), size, contentType); err != nil {
		return fmt.Errorf("storing %s: %w", path, err)
	}
	return nil
}

// Download opens the file at path.
func (s *Service) Download(ctx context.Context, auth *rules.Auth, path string) (*Object, error) {
	if err := rules.CheckFile(auth, rules.FileRead, rules.File{Path: path}); err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, path)
}

// Delete removes the file at path.
func (s *Service) Delete(ctx context.Context, auth *rules.Auth, path string) error {
	if err := rules.CheckFile(auth, rules.FileDelete, rules.File{Path: path}); err != nil {
		return err
	}
	return s.backend.Remove(ctx, path)
}
