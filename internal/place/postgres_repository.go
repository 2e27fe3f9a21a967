package place

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL place repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByAlias retrieves a place by its normalized alias.
func (r *PostgresRepository) GetByAlias(ctx context.Context, alias string) (*Place, error) {
	query := `
		SELECT name, alias, lat, lon, created_at, updated_at
		FROM places
		WHERE alias = $1
	`

	var p Place
	err := r.pool.QueryRow(ctx, query, alias).Scan(
		&p.Name,
		&p.Alias,
		&p.Lat,
		&p.Lon,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}

// List retrieves all known places ordered by alias.
func (r *PostgresRepository) List(ctx context.Context) ([]*Place, error) {
	query := `
		SELECT name, alias, lat, lon, created_at, updated_at
		FROM places
		ORDER BY alias
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.Name, &p.Alias, &p.Lat, &p.Lon, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		places = append(places, &p)
	}

	return places, rows.Err()
}

// Upsert creates or replaces the place stored under its alias.
func (r *PostgresRepository) Upsert(ctx context.Context, p *Place) error {
	query := `
		INSERT INTO places (name, alias, lat, lon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (alias) DO UPDATE
		SET name = EXCLUDED.name,
		    lat = EXCLUDED.lat,
		    lon = EXCLUDED.lon,
		    updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, p.Name, p.Alias, p.Lat, p.Lon)
	return err
}

// Delete removes a place by alias.
func (r *PostgresRepository) Delete(ctx context.Context, alias string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM places WHERE alias = $1`, alias)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
