package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// MemoryBackend keeps objects in memory. It serves development without an
// object store and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]memObject)}
}

// Put stores an object. Short reads are an error.
func (b *MemoryBackend) Put(_ context.Context, path string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("upload was %d bytes, expected %d", len(data), size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey(path)] = memObject{data: data, contentType: contentType}
	return nil
}

// Get returns an object.
func (b *MemoryBackend) Get(_ context.Context, path string) (*Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.objects[objectKey(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		Size:        int64(len(o.data)),
		ContentType: o.contentType,
	}, nil
}

// Remove deletes an object.
func (b *MemoryBackend) Remove(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, objectKey(path))
	return nil
}
