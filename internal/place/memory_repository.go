package place

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Intended for tests and running without a database.
type InMemoryRepository struct {
	mu     sync.RWMutex
	places map[string]*Place // keyed by alias
}

// NewInMemoryRepository creates a new in-memory place repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{places: make(map[string]*Place)}
}

// GetByAlias retrieves a place by its normalized alias.
func (r *InMemoryRepository) GetByAlias(_ context.Context, alias string) (*Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.places[alias]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

// List retrieves all known places ordered by alias.
func (r *InMemoryRepository) List(_ context.Context) ([]*Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Place, 0, len(r.places))
	for _, p := range r.places {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

// Upsert creates or replaces the place stored under its alias.
func (r *InMemoryRepository) Upsert(_ context.Context, p *Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	clone := *p
	clone.UpdatedAt = now
	if existing, ok := r.places[p.Alias]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else {
		clone.CreatedAt = now
	}
	r.places[p.Alias] = &clone
	return nil
}

// Delete removes a place by alias.
func (r *InMemoryRepository) Delete(_ context.Context, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.places[alias]; !ok {
		return ErrNotFound
	}
	delete(r.places, alias)
	return nil
}
