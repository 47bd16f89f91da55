package dag

import (
	"sort"
	"sync"

	"github.com/fsdfsfssdf/gryflux/errors"
)

// Registry maps task IDs to the TaskFunc a PipelineBuilder attaches to a
// ProcessingNode of that ID. It is the external collaborator processors
// use to look up a node's function by name instead of closing over it
// directly.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]TaskFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]TaskFunc)}
}

// Register binds id to fn, replacing any previous binding.
func (r *Registry) Register(id string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[id] = fn
}

// Get looks up the TaskFunc registered for id. It returns ErrUnknownTask
// if none is registered.
func (r *Registry) Get(id string) (TaskFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[id]
	if !ok {
		return nil, errors.UnknownTask(id)
	}
	return fn, nil
}

// List returns every registered task ID, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.funcs))
	for id := range r.funcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
