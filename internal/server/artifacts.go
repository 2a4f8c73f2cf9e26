// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// maxArtifacts bounds how many explanations stay downloadable at once.
const maxArtifacts = 1024

// artifactRegistry maps opaque download IDs to artifact paths so clients
// never see or choose filesystem paths. Once limit entries are held, the
// oldest is evicted and its file removed.
type artifactRegistry struct {
	mu    sync.RWMutex
	paths map[string]string
	order []string
	limit int
}

func newArtifactRegistry(limit int) *artifactRegistry {
	return &artifactRegistry{paths: make(map[string]string), limit: limit}
}

// add registers path and returns its download ID.
func (r *artifactRegistry) add(path string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.paths[id] = path
	r.order = append(r.order, id)
	var evicted []string
	for len(r.order) > r.limit {
		old := r.order[0]
		r.order = r.order[1:]
		evicted = append(evicted, r.paths[old])
		delete(r.paths, old)
	}
	r.mu.Unlock()

	for _, p := range evicted {
		removeArtifact(p)
	}
	return id
}

func (r *artifactRegistry) get(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.paths[id]
	return p, ok
}

func (r *artifactRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.paths)
}

// removeArtifact deletes the file and its per-run directory when empty.
func removeArtifact(path string) {
	_ = os.Remove(path)
	_ = os.Remove(filepath.Dir(path))
}
