package gatherer

import "sync"

// Registry is the per-notebook Gatherer singleton registry: a concurrent
// map of notebook ID to its owning Gatherer handle. Each handle owns its
// own queue/dedup state; removing a notebook drops that state with it.
type Registry struct {
	mu       sync.Mutex
	handles  map[string]*Gatherer
	newFn    func(notebookID string) (*Gatherer, error)
}

// NewRegistry returns an empty registry. newFn is the Gatherer constructor
// used the first time a notebook is requested.
func NewRegistry(newFn func(notebookID string) (*Gatherer, error)) *Registry {
	return &Registry{handles: make(map[string]*Gatherer), newFn: newFn}
}

// Get returns the notebook's Gatherer handle, constructing it on first
// access. Construction is the only way a handle comes into being — there
// is no separate sync-path, per the single-constructor design.
func (r *Registry) Get(notebookID string) (*Gatherer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.handles[notebookID]; ok {
		return g, nil
	}
	g, err := r.newFn(notebookID)
	if err != nil {
		return nil, err
	}
	r.handles[notebookID] = g
	return g, nil
}

// Remove drops a notebook's handle and its in-memory dedup/queue state.
func (r *Registry) Remove(notebookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, notebookID)
}

// NotebookIDs returns every notebook currently registered.
func (r *Registry) NotebookIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	return ids
}
