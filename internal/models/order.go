package models

import (
	"github.com/shopspring/decimal"
)

// OrderStatus represents a value in the order tracking trail
type OrderStatus string

const (
	StatusInProgress OrderStatus = "in progress"
)

// MenuItem is a catalog entry mapping a food name to its id and unit price
type MenuItem struct {
	ID    int64           `json:"item_id" db:"item_id"`
	Name  string          `json:"name" db:"name"`
	Price decimal.Decimal `json:"price" db:"price"`
}

// CartLine is one pending item in a session's cart
type CartLine struct {
	SessionID string `json:"session_id" db:"session_id"`
	ItemID    int64  `json:"item_id" db:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

// OrderLine is one finalized, immutable line in the order ledger
type OrderLine struct {
	OrderID   int64           `json:"order_id" db:"order_id"`
	ItemID    int64           `json:"item_id" db:"item_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	LineTotal decimal.Decimal `json:"total_price" db:"total_price"`
}

// AddResult reports the outcome of an add-items request
type AddResult struct {
	Cart    map[string]int `json:"cart"`
	Skipped []string       `json:"skipped,omitempty"`
}

// RemoveOutcome classifies what happened to a single removal target
type RemoveOutcome int

const (
	RemoveNotFound RemoveOutcome = iota
	Removed
	AllRemoved
)

// RemovedItem is one successfully removed entry in a remove request
type RemovedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	All      bool   `json:"all"`
}

// RemoveResult reports the outcome of a remove-items request
type RemoveResult struct {
	Removed  []RemovedItem  `json:"removed,omitempty"`
	NotFound []string       `json:"not_found,omitempty"`
	Cart     map[string]int `json:"cart"`
}

// FinalizeResult reports a successfully placed order
type FinalizeResult struct {
	OrderID int64             `json:"order_id"`
	Total   decimal.Decimal   `json:"total"`
	Items   []OrderPlacedItem `json:"items,omitempty"`
}

// TrackResult reports the tracking lookup for an order id
type TrackResult struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status,omitempty"`
	Found   bool   `json:"found"`
}
