package exchange

import (
	"fmt"
	"sort"
	"sync"

	"github.com/predictkit/predictkit/pkg/types"
)

// Registry holds the configured venues keyed by id.
type Registry struct {
	mu     sync.RWMutex
	venues map[string]Exchange
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{venues: make(map[string]Exchange)}
}

// Register adds a venue. Registering a duplicate id is an error.
func (r *Registry) Register(ex Exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.venues[ex.ID()]; ok {
		return fmt.Errorf("%w: venue %q already registered", types.ErrInvalidInput, ex.ID())
	}
	r.venues[ex.ID()] = ex
	return nil
}

// Get returns a venue by id.
func (r *Registry) Get(id string) (Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.venues[id]
	return ex, ok
}

// IDs returns the registered venue ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.venues))
	for id := range r.venues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
