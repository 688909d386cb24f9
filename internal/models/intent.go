package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Intent is the closed set of webhook intents this backend handles.
// Unknown display names map to IntentUnknown and get a fallback reply.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentNewOrder
	IntentAddItems
	IntentRemoveItems
	IntentCompleteOrder
	IntentTrackOrder
)

// String returns the canonical display name of the intent
func (i Intent) String() string {
	switch i {
	case IntentNewOrder:
		return "new.order"
	case IntentAddItems:
		return "order.add"
	case IntentRemoveItems:
		return "order.remove"
	case IntentCompleteOrder:
		return "order.complete"
	case IntentTrackOrder:
		return "track.order"
	default:
		return "unknown"
	}
}

// ParseIntent maps a platform intent display name to an Intent.
// Context-qualified variants ("order.add - context: ongoing-order")
// resolve to the same intent as their base name.
func ParseIntent(displayName string) Intent {
	base := displayName
	if idx := strings.Index(base, " - context:"); idx >= 0 {
		base = base[:idx]
	}

	switch strings.TrimSpace(base) {
	case "new.order":
		return IntentNewOrder
	case "order.add":
		return IntentAddItems
	case "order.remove":
		return IntentRemoveItems
	case "order.complete":
		return IntentCompleteOrder
	case "track.order":
		return IntentTrackOrder
	default:
		return IntentUnknown
	}
}

// StringList decodes a JSON value that may be a single string or an
// array of strings. The NLU platform sends both shapes.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	if one != "" {
		*s = []string{one}
	}
	return nil
}

// NumberList decodes a JSON value that may be a single number, a
// numeric string, or an array of either.
type NumberList []float64

func (n *NumberList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		*n = []float64{v}
	case string:
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("expected numeric value: %w", err)
		}
		*n = []float64{f}
	case []interface{}:
		out := make([]float64, 0, len(v))
		for _, e := range v {
			switch ev := e.(type) {
			case float64:
				out = append(out, ev)
			case string:
				f, err := strconv.ParseFloat(ev, 64)
				if err != nil {
					return fmt.Errorf("expected numeric value: %w", err)
				}
				out = append(out, f)
			default:
				return fmt.Errorf("expected numeric value, got %T", e)
			}
		}
		*n = out
	default:
		return fmt.Errorf("expected number or number array, got %T", raw)
	}
	return nil
}

// Parameters are the slot-filled values extracted by the NLU platform
type Parameters struct {
	FoodItems StringList `json:"food_items"`
	Number    NumberList `json:"number"`
	Number1   NumberList `json:"number1"`
	OrderID   NumberList `json:"order_id"`
}

// Quantities merges the platform's split quantity slots in order
func (p Parameters) Quantities() []int {
	out := make([]int, 0, len(p.Number)+len(p.Number1))
	for _, f := range p.Number {
		out = append(out, int(f))
	}
	for _, f := range p.Number1 {
		out = append(out, int(f))
	}
	return out
}

// TrackedOrderID returns the order id slot, if one was supplied
func (p Parameters) TrackedOrderID() (int64, bool) {
	if len(p.OrderID) == 0 || p.OrderID[0] <= 0 {
		return 0, false
	}
	return int64(p.OrderID[0]), true
}

// ErrItemQuantityMismatch reports item and quantity lists of unequal length
var ErrItemQuantityMismatch = fmt.Errorf("food items and quantities do not pair up")

// ErrInvalidQuantity reports a non-positive requested quantity
var ErrInvalidQuantity = fmt.Errorf("quantity must be a positive integer")

// ZipItems pairs item names with their quantities. Duplicate names keep
// the last quantity, matching the upstream platform's slot semantics.
func ZipItems(names []string, quantities []int) (map[string]int, error) {
	if len(names) != len(quantities) {
		return nil, ErrItemQuantityMismatch
	}

	items := make(map[string]int, len(names))
	for i, name := range names {
		if quantities[i] <= 0 {
			return nil, ErrInvalidQuantity
		}
		items[name] = quantities[i]
	}
	return items, nil
}

// ItemRequest is one (name, quantity) pair from a webhook event
type ItemRequest struct {
	Name     string
	Quantity int
}

// RemovalItems pairs item names with removal quantities in request
// order; a missing quantity defaults to 1.
func RemovalItems(names []string, quantities []int) ([]ItemRequest, error) {
	items := make([]ItemRequest, 0, len(names))
	for i, name := range names {
		qty := 1
		if i < len(quantities) {
			qty = quantities[i]
		}
		if qty <= 0 {
			return nil, ErrInvalidQuantity
		}
		items = append(items, ItemRequest{Name: name, Quantity: qty})
	}
	return items, nil
}
