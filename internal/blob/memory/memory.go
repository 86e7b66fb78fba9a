// Package memory is an in-process blob store with mem:// URLs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const scheme = "mem://"

type object struct {
	data        []byte
	contentType string
}

type Store struct {
	mu      sync.Mutex
	objects map[string]object
}

func New() *Store {
	return &Store{objects: make(map[string]object)}
}

// Store implements ports.BlobStore. The handle is the key.
func (s *Store) Store(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty blob key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	return key, nil
}

// Resolve implements ports.BlobStore.
func (s *Store) Resolve(_ context.Context, handle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[handle]; !ok {
		return "", fmt.Errorf("blob %s not found", handle)
	}
	return scheme + handle, nil
}

// Delete implements ports.BlobStore.
func (s *Store) Delete(_ context.Context, urlOrKey string) error {
	key := strings.TrimPrefix(urlOrKey, scheme)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("blob %s not found", key)
	}
	delete(s.objects, key)
	return nil
}

// Get returns a copy of the stored bytes and content type.
func (s *Store) Get(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[strings.TrimPrefix(key, scheme)]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), o.data...), o.contentType, true
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
