package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bytebowl/internal/logger"
	"bytebowl/internal/models"
	"bytebowl/internal/services/ledger"
)

func testLogger() *logger.Logger {
	return logger.New("test")
}

func TestAddItemsMergesQuantities(t *testing.T) {
	service, cart, _, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 2}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}
	result, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 3}, "req-2")
	if err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}

	if got := result.Cart["Pizza"]; got != 5 {
		t.Errorf("expected merged quantity 5, got %d", got)
	}
	if count := cart.lineCount("s1"); count != 1 {
		t.Errorf("expected exactly one cart line, got %d", count)
	}
}

func TestAddItemsReportsSkipped(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()

	result, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 1, "Sushi": 2}, "req-1")
	if err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}

	if len(result.Skipped) != 1 || result.Skipped[0] != "Sushi" {
		t.Errorf("expected Sushi to be skipped, got %v", result.Skipped)
	}
	if got := result.Cart["Pizza"]; got != 1 {
		t.Errorf("expected Pizza quantity 1, got %d", got)
	}
	if _, ok := result.Cart["Sushi"]; ok {
		t.Error("unresolvable item must not enter the cart")
	}
}

func TestAddItemsAllSkipped(t *testing.T) {
	service, cart, _, _ := newTestService()
	ctx := context.Background()

	result, err := service.AddItems(ctx, "s1", map[string]int{"Sushi": 2, "Ramen": 1}, "req-1")
	if err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}

	if len(result.Skipped) != 2 {
		t.Errorf("expected 2 skipped items, got %v", result.Skipped)
	}
	if count := cart.lineCount("s1"); count != 0 {
		t.Errorf("expected empty cart, got %d lines", count)
	}
}

func TestRemoveItemsTieBreak(t *testing.T) {
	tests := []struct {
		name         string
		have         int
		remove       int
		wantAll      bool
		wantQuantity int
	}{
		{name: "removeLessThanHeld", have: 3, remove: 1, wantAll: false, wantQuantity: 2},
		{name: "removeExactlyHeld", have: 3, remove: 3, wantAll: true},
		{name: "removeMoreThanHeld", have: 3, remove: 5, wantAll: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, cart, _, _ := newTestService()
			ctx := context.Background()

			if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": tt.have}, "req-1"); err != nil {
				t.Fatalf("AddItems returned error: %v", err)
			}

			result, err := service.RemoveItems(ctx, "s1",
				[]models.ItemRequest{{Name: "Pizza", Quantity: tt.remove}}, "req-2")
			if err != nil {
				t.Fatalf("RemoveItems returned error: %v", err)
			}

			if len(result.Removed) != 1 {
				t.Fatalf("expected one removed entry, got %v", result.Removed)
			}
			if result.Removed[0].All != tt.wantAll {
				t.Errorf("All = %v, want %v", result.Removed[0].All, tt.wantAll)
			}

			if tt.wantAll {
				if count := cart.lineCount("s1"); count != 0 {
					t.Errorf("expected line deleted, got %d lines", count)
				}
			} else if got := result.Cart["Pizza"]; got != tt.wantQuantity {
				t.Errorf("remaining quantity = %d, want %d", got, tt.wantQuantity)
			}
		})
	}
}

func TestRemoveItemsNotFound(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 1}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}

	result, err := service.RemoveItems(ctx, "s1", []models.ItemRequest{
		{Name: "Samosa", Quantity: 1}, // on the menu, not in the cart
		{Name: "Sushi", Quantity: 1},  // not on the menu at all
	}, "req-2")
	if err != nil {
		t.Fatalf("RemoveItems returned error: %v", err)
	}

	if len(result.Removed) != 0 {
		t.Errorf("expected nothing removed, got %v", result.Removed)
	}
	if len(result.NotFound) != 2 {
		t.Errorf("expected 2 not-found entries, got %v", result.NotFound)
	}
	if got := result.Cart["Pizza"]; got != 1 {
		t.Errorf("cart must be untouched, Pizza = %d", got)
	}
}

func TestCompleteOrderDrainsCart(t *testing.T) {
	service, cart, led, events := newTestService()
	ctx := context.Background()

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 1, "Chole Bhature": 2}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}

	result, err := service.CompleteOrder(ctx, "s1", "req-2")
	if err != nil {
		t.Fatalf("CompleteOrder returned error: %v", err)
	}

	if result.OrderID != 1 {
		t.Errorf("first order id = %d, want 1", result.OrderID)
	}
	// 1*250 + 2*120
	if want := decimal.NewFromInt(490); !result.Total.Equal(want) {
		t.Errorf("total = %s, want %s", result.Total, want)
	}
	if count := cart.lineCount("s1"); count != 0 {
		t.Errorf("cart must be empty after finalize, got %d lines", count)
	}

	status, found, err := led.GetStatus(ctx, result.OrderID)
	if err != nil || !found {
		t.Fatalf("GetStatus found=%v err=%v", found, err)
	}
	if status != string(models.StatusInProgress) {
		t.Errorf("status = %q, want %q", status, models.StatusInProgress)
	}

	if len(events.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(events.published))
	}
	if events.published[0].OrderID != result.OrderID {
		t.Errorf("published order id = %d, want %d", events.published[0].OrderID, result.OrderID)
	}
}

func TestCompleteOrderEmptyCart(t *testing.T) {
	service, _, led, events := newTestService()
	ctx := context.Background()

	_, err := service.CompleteOrder(ctx, "s1", "req-1")
	if !errors.Is(err, ledger.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if len(events.published) != 0 {
		t.Error("failed finalize must not publish an event")
	}

	// A failed finalize consumes no order id.
	if _, err := service.AddItems(ctx, "s1", map[string]int{"Samosa": 4}, "req-2"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}
	result, err := service.CompleteOrder(ctx, "s1", "req-3")
	if err != nil {
		t.Fatalf("CompleteOrder returned error: %v", err)
	}
	if result.OrderID != 1 {
		t.Errorf("order id after failed finalize = %d, want 1", result.OrderID)
	}
	if got := len(led.orders); got != 1 {
		t.Errorf("ledger order count = %d, want 1", got)
	}
}

func TestCompleteOrderNoValidItems(t *testing.T) {
	service, cart, _, _ := newTestService()
	ctx := context.Background()

	// Cart line pointing at an item the menu no longer carries.
	cart.carts["s1"] = map[int64]int{99: 2}

	_, err := service.CompleteOrder(ctx, "s1", "req-1")
	if !errors.Is(err, ledger.ErrNoValidItems) {
		t.Fatalf("expected ErrNoValidItems, got %v", err)
	}
}

func TestOrderIDsMonotonic(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()

	var lastID int64
	for _, session := range []string{"s1", "s2", "s3"} {
		if _, err := service.AddItems(ctx, session, map[string]int{"Samosa": 1}, "req"); err != nil {
			t.Fatalf("AddItems returned error: %v", err)
		}
		result, err := service.CompleteOrder(ctx, session, "req")
		if err != nil {
			t.Fatalf("CompleteOrder returned error: %v", err)
		}
		if result.OrderID <= lastID {
			t.Errorf("order id %d not greater than previous %d", result.OrderID, lastID)
		}
		lastID = result.OrderID
	}
}

func TestCompleteOrderPublishFailureDoesNotFail(t *testing.T) {
	service, _, _, events := newTestService()
	ctx := context.Background()
	events.failErr = errors.New("broker down")

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 1}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}
	result, err := service.CompleteOrder(ctx, "s1", "req-2")
	if err != nil {
		t.Fatalf("a publish failure must not fail the committed order: %v", err)
	}
	if result.OrderID != 1 {
		t.Errorf("order id = %d, want 1", result.OrderID)
	}
}

func TestTrackOrder(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Mango Lassi": 2}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}
	placed, err := service.CompleteOrder(ctx, "s1", "req-2")
	if err != nil {
		t.Fatalf("CompleteOrder returned error: %v", err)
	}

	result, err := service.TrackOrder(ctx, placed.OrderID)
	if err != nil {
		t.Fatalf("TrackOrder returned error: %v", err)
	}
	if !result.Found || result.Status != string(models.StatusInProgress) {
		t.Errorf("track result = %+v, want in progress", result)
	}

	// Idempotent query: same answer twice with no intervening writes.
	again, err := service.TrackOrder(ctx, placed.OrderID)
	if err != nil {
		t.Fatalf("TrackOrder returned error: %v", err)
	}
	if *again != *result {
		t.Errorf("repeated track differs: %+v vs %+v", again, result)
	}

	missing, err := service.TrackOrder(ctx, 999)
	if err != nil {
		t.Fatalf("TrackOrder returned error: %v", err)
	}
	if missing.Found {
		t.Error("unknown order id must not be found")
	}
}

func TestNewOrderClearsCart(t *testing.T) {
	service, cart, _, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 2}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}
	if err := service.NewOrder(ctx, "s1"); err != nil {
		t.Fatalf("NewOrder returned error: %v", err)
	}
	if count := cart.lineCount("s1"); count != 0 {
		t.Errorf("expected empty cart after new order, got %d lines", count)
	}
}

func TestScenarioAddRemoveFinalize(t *testing.T) {
	service, cart, _, _ := newTestService()
	ctx := context.Background()

	if _, err := service.AddItems(ctx, "s1", map[string]int{"Pizza": 1, "Chole Bhature": 2}, "req-1"); err != nil {
		t.Fatalf("AddItems returned error: %v", err)
	}

	removed, err := service.RemoveItems(ctx, "s1", []models.ItemRequest{{Name: "Pizza", Quantity: 1}}, "req-2")
	if err != nil {
		t.Fatalf("RemoveItems returned error: %v", err)
	}
	if len(removed.Removed) != 1 || !removed.Removed[0].All {
		t.Fatalf("expected all Pizza removed, got %+v", removed.Removed)
	}
	if got := removed.Cart["Chole Bhature"]; got != 2 {
		t.Fatalf("remaining cart = %v", removed.Cart)
	}

	placed, err := service.CompleteOrder(ctx, "s1", "req-3")
	if err != nil {
		t.Fatalf("CompleteOrder returned error: %v", err)
	}
	if want := decimal.NewFromInt(240); !placed.Total.Equal(want) {
		t.Errorf("total = %s, want %s", placed.Total, want)
	}
	if count := cart.lineCount("s1"); count != 0 {
		t.Errorf("cart not empty after finalize")
	}

	track, err := service.TrackOrder(ctx, placed.OrderID)
	if err != nil || !track.Found {
		t.Fatalf("track failed: %+v %v", track, err)
	}
	if track.Status != string(models.StatusInProgress) {
		t.Errorf("status = %q, want in progress", track.Status)
	}
}
