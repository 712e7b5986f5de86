// Package store provides the in-process state shared by UI-facing handlers:
// the not-interested bookmark set and the static reference data cache.
// Stores start empty, never evict and are not persisted.
package store

import (
	"slices"
	"sync"
)

// Set is a concurrency-safe set of string keys.
type Set struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{items: make(map[string]struct{})}
}

// Add inserts key and reports whether it was newly added.
func (s *Set) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = struct{}{}
	return true
}

// Remove deletes key and reports whether it was present.
func (s *Set) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// Contains reports whether key is in the set.
func (s *Set) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[key]
	return ok
}

// List returns the keys in sorted order.
func (s *Set) List() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len returns the number of keys.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
