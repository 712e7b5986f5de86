package store

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Reference caches static reference data (job categories, locations,
// skills) as JSON documents keyed by kind.
type Reference struct {
	mu    sync.RWMutex
	items map[string]json.RawMessage
}

// NewReference creates an empty Reference store.
func NewReference() *Reference {
	return &Reference{items: make(map[string]json.RawMessage)}
}

// Get returns the document stored for kind.
func (r *Reference) Get(kind string) (json.RawMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.items[kind]
	return doc, ok
}

// Set stores doc under kind, replacing any previous value.
func (r *Reference) Set(kind string, doc json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[kind] = slices.Clone(doc)
}

// Has reports whether kind is cached.
func (r *Reference) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[kind]
	return ok
}

// Kinds returns the cached kinds in sorted order.
func (r *Reference) Kinds() []string {
	r.mu.RLock()
	kinds := make([]string, 0, len(r.items))
	for k := range r.items {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()

	slices.Sort(kinds)
	return kinds
}

// LoadSeed reads a YAML file mapping kind to an arbitrary document and
// stores each entry as JSON. It returns the number of kinds loaded.
func (r *Reference) LoadSeed(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read reference seed %s: %w", path, err)
	}

	var seed map[string]any
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse reference seed %s: %w", path, err)
	}

	for kind, v := range seed {
		doc, err := json.Marshal(v)
		if err != nil {
			return 0, fmt.Errorf("reference seed %s: kind %q: %w", path, kind, err)
		}
		r.Set(kind, doc)
	}
	return len(seed), nil
}
