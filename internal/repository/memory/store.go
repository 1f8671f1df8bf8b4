// Package memory provides a generic thread-safe in-memory key-value store
// used by repository adapters.
package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Store when the requested key does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned by Insert when the key is already taken.
var ErrExists = errors.New("already exists")

// Store is a generic thread-safe in-memory key-value store. Insert, Mutate
// and View each run as a single critical section, so check-then-insert
// sequences built on them cannot interleave.
type Store[V any] struct {
	mu      sync.RWMutex
	data    map[string]V
	keyFunc func(V) string
}

// New creates a Store with a key extractor function.
func New[V any](keyFunc func(V) string) *Store[V] {
	return &Store[V]{
		data:    make(map[string]V),
		keyFunc: keyFunc,
	}
}

// Insert stores the value, failing with ErrExists if the key is taken.
func (s *Store[V]) Insert(_ context.Context, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keyFunc(v)
	if _, ok := s.data[key]; ok {
		return ErrExists
	}
	s.data[key] = v
	return nil
}

// Mutate runs fn against the value for key while holding the write lock.
// Returns ErrNotFound if the key is absent; otherwise fn's error.
func (s *Store[V]) Mutate(_ context.Context, key string, fn func(V) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return ErrNotFound
	}
	return fn(v)
}

// View runs fn against the value for key while holding the read lock.
// fn must copy out anything it needs and must not retain the value.
func (s *Store[V]) View(_ context.Context, key string, fn func(V) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return ErrNotFound
	}
	return fn(v)
}

// Delete removes the value for key. Returns ErrNotFound if absent.
func (s *Store[V]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return ErrNotFound
	}
	delete(s.data, key)
	return nil
}

// All returns all stored values in arbitrary order.
func (s *Store[V]) All(_ context.Context) ([]V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, len(s.data))
	for _, v := range s.data {
		out = append(out, v)
	}
	return out, nil
}

// Has reports whether the key exists.
func (s *Store[V]) Has(_ context.Context, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}
