package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedItem is one line of a placed-order event
type OrderPlacedItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderPlacedMessage is published after a finalize transaction commits
type OrderPlacedMessage struct {
	OrderID   int64             `json:"order_id"`
	SessionID string            `json:"session_id"`
	Total     decimal.Decimal   `json:"total"`
	Status    OrderStatus       `json:"status"`
	Items     []OrderPlacedItem `json:"items"`
	PlacedAt  time.Time         `json:"placed_at"`
}
