package storage

import (
	"context"
	"sync"

	footprintapp "github.com/halo-extras/backend/internal/application/footprint"
)

// StubObjectStorage keeps uploads in memory and serves them under BaseURL.
// It backs the image endpoint when object storage is disabled.
type StubObjectStorage struct {
	// BaseURL prefixes returned object links
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &StubObjectStorage{
		BaseURL: baseURL,
		objects: make(map[string][]byte),
	}
}

var _ footprintapp.ImageStorage = (*StubObjectStorage)(nil)

// Upload records the object and returns its stub URL
func (s *StubObjectStorage) Upload(_ context.Context, storageKey string, data []byte, _ string) (string, error) {
	if storageKey == "" {
		return "", ErrStorageKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), data...)
	return s.BaseURL + "/" + storageKey, nil
}

// Delete forgets the object
func (s *StubObjectStorage) Delete(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether the key was uploaded
func (s *StubObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, ErrStorageKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}
