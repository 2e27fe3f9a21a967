package place

import "context"

// Repository defines the interface for known-place persistence.
type Repository interface {
	// GetByAlias retrieves a place by its normalized alias.
	GetByAlias(ctx context.Context, alias string) (*Place, error)

	// List retrieves all known places ordered by alias.
	List(ctx context.Context) ([]*Place, error)

	// Upsert creates or replaces the place stored under its alias.
	Upsert(ctx context.Context, p *Place) error

	// Delete removes a place by alias.
	Delete(ctx context.Context, alias string) error
}
