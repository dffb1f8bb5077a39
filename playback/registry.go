package playback

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry is an explicit handle registry for live coordinators, owned by the
// hosting application. It replaces any notion of a shared global namespace:
// callers hold a Registry reference and look coordinators up by media id.
type Registry struct {
	mu     sync.Mutex
	coords map[string]*Coordinator
}

// NewRegistry creates an empty coordinator registry.
func NewRegistry() *Registry {
	return &Registry{coords: make(map[string]*Coordinator)}
}

// Register stores a coordinator under an id. Registering a second
// coordinator under a live id is an error; Remove the old one first.
func (r *Registry) Register(id string, c *Coordinator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.coords[id]; exists {
		return fmt.Errorf("coordinator %q is already registered", id)
	}

	r.coords[id] = c
	return nil
}

// Lookup returns the coordinator registered under an id.
func (r *Registry) Lookup(id string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coords[id]
	return c, ok
}

// Remove deregisters and disposes the coordinator under an id. Removing an
// unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c := r.coords[id]
	delete(r.coords, id)
	r.mu.Unlock()

	if c != nil {
		c.Dispose()
	}
}

// IDs lists the registered ids in stable order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := maps.Keys(r.coords)
	slices.Sort(ids)
	return ids
}

// Close disposes every registered coordinator and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	coords := maps.Values(r.coords)
	r.coords = make(map[string]*Coordinator)
	r.mu.Unlock()

	for _, c := range coords {
		c.Dispose()
	}
}
