// Package cart implements the durable session cart: one row per
// (session, item) pair, merged on add, decremented or deleted on
// remove. The database is the single source of truth so any process
// instance can serve any session.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bytebowl/internal/database"
	"bytebowl/internal/logger"
	"bytebowl/internal/models"
)

// Store persists session carts in PostgreSQL
type Store struct {
	db     *database.DB
	logger *logger.Logger
}

// NewStore creates a cart store over the given database
func NewStore(db *database.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// AddItems merges the given item increments into the session's cart as
// one transaction. Existing lines grow by the increment, new lines are
// created; two concurrent calls both land because the merge happens in
// the database, not in memory.
func (s *Store) AddItems(ctx context.Context, sessionID string, items map[int64]int) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for itemID, quantity := range items {
		if quantity <= 0 {
			return models.ErrInvalidQuantity
		}
		if _, err := tx.Exec(ctx, database.UpsertCartLineSQL, sessionID, itemID, quantity); err != nil {
			return fmt.Errorf("merge cart line: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RemoveItem decrements or deletes the session's line for an item.
// Strictly more in the cart than requested decrements in place; equal
// or less deletes the line entirely. A missing line is NotFound.
func (s *Store) RemoveItem(ctx context.Context, sessionID string, itemID int64, quantity int) (models.RemoveOutcome, error) {
	if quantity <= 0 {
		return models.RemoveNotFound, models.ErrInvalidQuantity
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.RemoveNotFound, fmt.Errorf("begin remove transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx, database.GetCartLineForUpdateSQL, sessionID, itemID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RemoveNotFound, nil
		}
		return models.RemoveNotFound, fmt.Errorf("lock cart line: %w", err)
	}

	outcome := models.Removed
	if current > quantity {
		_, err = tx.Exec(ctx, database.DecrementCartLineSQL, sessionID, itemID, quantity)
	} else {
		outcome = models.AllRemoved
		_, err = tx.Exec(ctx, database.DeleteCartLineSQL, sessionID, itemID)
	}
	if err != nil {
		return models.RemoveNotFound, fmt.Errorf("update cart line: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.RemoveNotFound, fmt.Errorf("commit remove: %w", err)
	}
	return outcome, nil
}

// GetCart returns a name -> quantity snapshot of the session's cart,
// joined back through the menu catalog. Empty carts yield an empty map.
func (s *Store) GetCart(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.Query(ctx, database.GetCartSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	cart := make(map[string]int)
	for rows.Next() {
		var name string
		var quantity int
		if err := rows.Scan(&name, &quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart[name] = quantity
	}

	return cart, rows.Err()
}

// Clear deletes every cart line for the session
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.db.Exec(ctx, database.ClearCartSQL, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
