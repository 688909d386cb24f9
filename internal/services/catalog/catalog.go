// Package catalog resolves food item names against the seeded menu.
// Resolution is read-only and exact-match; names the menu does not
// carry are simply absent from results, callers treat absence as skip.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bytebowl/internal/database"
	"bytebowl/internal/models"
)

// Resolver looks up menu items by exact name
type Resolver struct {
	db *database.DB
}

// NewResolver creates a catalog resolver over the given database
func NewResolver(db *database.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the menu item for an exact name match. The second
// return value is false when the name is not on the menu.
func (r *Resolver) Resolve(ctx context.Context, name string) (models.MenuItem, bool, error) {
	var item models.MenuItem
	err := r.db.QueryRow(ctx, database.ResolveItemSQL, name).Scan(&item.ID, &item.Name, &item.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MenuItem{}, false, nil
		}
		return models.MenuItem{}, false, fmt.Errorf("resolve item %q: %w", name, err)
	}
	return item, true, nil
}

// ResolveMany resolves a batch of names in one round trip. The result
// only contains names that matched.
func (r *Resolver) ResolveMany(ctx context.Context, names []string) (map[string]models.MenuItem, error) {
	resolved := make(map[string]models.MenuItem, len(names))
	if len(names) == 0 {
		return resolved, nil
	}

	rows, err := r.db.Query(ctx, database.ResolveItemsSQL, names)
	if err != nil {
		return nil, fmt.Errorf("resolve items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		resolved[item.Name] = item
	}

	return resolved, rows.Err()
}
