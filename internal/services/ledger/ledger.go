// Package ledger owns the append-only order record. Finalize drains a
// session cart into durable order lines inside a single transaction;
// nothing from a failed finalize is ever visible.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bytebowl/internal/database"
	"bytebowl/internal/logger"
	"bytebowl/internal/models"
)

// Sentinel failures a finalize call can report to the user
var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNoValidItems = errors.New("no valid items in cart")
)

// orderIDLockKey serializes order-id allocation across concurrent
// finalize transactions (pg_advisory_xact_lock).
const orderIDLockKey = 740031

// Ledger writes and reads finalized orders
type Ledger struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a ledger over the given database
func New(db *database.DB, log *logger.Logger) *Ledger {
	return &Ledger{db: db, logger: log}
}

type resolvedLine struct {
	itemID   int64
	name     string
	quantity int
	price    decimal.Decimal
}

// Finalize atomically converts the session's cart into an order:
// snapshot the cart, allocate max+1 as the order id, write one ledger
// line per resolvable item plus an initial "in progress" tracking
// entry, then clear the cart. All of it commits together or not at all.
func (l *Ledger) Finalize(ctx context.Context, sessionID string) (*models.FinalizeResult, error) {
	tx, err := l.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin finalize transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the session's cart rows so a concurrent add/remove cannot
	// slip between the snapshot and the clear.
	pending, err := l.lockCart(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		return nil, ErrEmptyCart
	}

	lines, err := l.resolvedLines(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		// Every cart line pointed at an item the menu no longer carries.
		return nil, ErrNoValidItems
	}

	orderID, err := l.allocateOrderID(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &models.FinalizeResult{OrderID: orderID, Total: decimal.Zero}
	for _, line := range lines {
		lineTotal := line.price.Mul(decimal.NewFromInt(int64(line.quantity)))
		_, err = tx.Exec(ctx, database.InsertOrderLineSQL, orderID, line.itemID, line.quantity, lineTotal)
		if err != nil {
			return nil, fmt.Errorf("insert order line: %w", err)
		}
		result.Total = result.Total.Add(lineTotal)
		result.Items = append(result.Items, models.OrderPlacedItem{
			Name:      line.name,
			Quantity:  line.quantity,
			LineTotal: lineTotal,
		})
	}

	_, err = tx.Exec(ctx, database.InsertOrderTrackingSQL, orderID, string(models.StatusInProgress))
	if err != nil {
		return nil, fmt.Errorf("insert order tracking: %w", err)
	}

	if _, err = tx.Exec(ctx, database.ClearCartSQL, sessionID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit finalize: %w", err)
	}

	return result, nil
}

func (l *Ledger) lockCart(ctx context.Context, tx pgx.Tx, sessionID string) (int, error) {
	rows, err := tx.Query(ctx, database.LockCartForFinalizeSQL, sessionID)
	if err != nil {
		return 0, fmt.Errorf("lock cart: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

func (l *Ledger) resolvedLines(ctx context.Context, tx pgx.Tx, sessionID string) ([]resolvedLine, error) {
	rows, err := tx.Query(ctx, database.ResolvedCartLinesSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve cart lines: %w", err)
	}
	defer rows.Close()

	var lines []resolvedLine
	for rows.Next() {
		var line resolvedLine
		if err := rows.Scan(&line.itemID, &line.name, &line.quantity, &line.price); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (l *Ledger) allocateOrderID(ctx context.Context, tx pgx.Tx) (int64, error) {
	// The advisory lock is transaction-scoped: a finalize that fails
	// after this point rolls back and consumes no id.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", orderIDLockKey); err != nil {
		return 0, fmt.Errorf("acquire order id lock: %w", err)
	}

	var orderID int64
	if err := tx.QueryRow(ctx, database.NextOrderIDSQL).Scan(&orderID); err != nil {
		return 0, fmt.Errorf("allocate order id: %w", err)
	}
	return orderID, nil
}

// GetStatus returns the most recent tracking status for an order. The
// second return value is false for unknown order ids.
func (l *Ledger) GetStatus(ctx context.Context, orderID int64) (string, bool, error) {
	var status string
	err := l.db.QueryRow(ctx, database.GetOrderStatusSQL, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query order status: %w", err)
	}
	return status, true, nil
}

// GetTotal returns the sum of line totals for an order; zero when the
// order id has no lines.
func (l *Ledger) GetTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := l.db.QueryRow(ctx, database.GetOrderTotalSQL, orderID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query order total: %w", err)
	}
	return total, nil
}
