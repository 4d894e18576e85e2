package index

import "sync"

// Registry maps document ids to their live indexes. Put replaces any prior
// index for the same id in one step; a re-uploaded document is an atomic
// swap, never a merge with the old chunks.
type Registry struct {
	mu      sync.RWMutex
	indexes map[string]*Index
}

func NewRegistry() *Registry {
	return &Registry{indexes: make(map[string]*Index)}
}

func (r *Registry) Put(id string, ix *Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes[id] = ix
}

func (r *Registry) Get(id string) (*Index, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ix, ok := r.indexes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ix, nil
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.indexes[id]
	return ok
}

// Delete removes the index for id and reports whether one was present.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.indexes[id]
	delete(r.indexes, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indexes)
}
