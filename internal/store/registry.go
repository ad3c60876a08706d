package store

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Registry opens and caches one Store per book. There is no ambient
// module-level state here, only explicit objects passed down from
// main. The composition root constructs exactly one Registry and
// threads it through constructor injection.
type Registry struct {
	dataDir string
	vector  VectorBackend // nil selects the in-process cosine scan for every Store

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates a Registry rooted at dataDir, the directory
// holding one SQLite file per book. vector is optional; when non-nil,
// every Store the Registry opens is configured to use it for vector
// search and upsert instead of the default in-process cosine scan
// (see cmd/ragctl for how a QDRANT_URL selects a QdrantVectorBackend).
func NewRegistry(dataDir string, vector VectorBackend) *Registry {
	return &Registry{dataDir: dataDir, vector: vector, stores: make(map[string]*Store)}
}

// Get returns the Store for bookHash, opening and caching its backend
// on first use. Safe for concurrent use.
func (r *Registry) Get(bookHash string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[bookHash]; ok {
		return s, nil
	}

	path := filepath.Join(r.dataDir, fmt.Sprintf("%s%s.db", DBNamePrefix, bookHash))
	backend, err := OpenSQLiteBackend(path, bookHash)
	if err != nil {
		return nil, err
	}
	s := New(backend, bookHash)
	if r.vector != nil {
		s.SetVectorBackend(r.vector)
	}
	r.stores[bookHash] = s
	return s, nil
}

// RecoverFromError closes and evicts the Store for bookHash so the
// next Get opens a fresh handle with empty caches.
func (r *Registry) RecoverFromError(bookHash string) error {
	r.mu.Lock()
	s, ok := r.stores[bookHash]
	delete(r.stores, bookHash)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return s.RecoverFromError()
}

// CloseAll closes every open Store. Intended for graceful shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for hash, s := range r.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.stores, hash)
	}
	return firstErr
}
