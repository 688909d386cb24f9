// Package webhook turns structured intent events from the NLU platform
// into cart and ledger operations. Upstream delivery is at-least-once
// and retried adds are not deduplicated; each delivery applies again.
package webhook

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bytebowl/internal/logger"
	"bytebowl/internal/models"
)

// Catalog resolves food item names against the menu
type Catalog interface {
	Resolve(ctx context.Context, name string) (models.MenuItem, bool, error)
	ResolveMany(ctx context.Context, names []string) (map[string]models.MenuItem, error)
}

// CartStore persists per-session carts
type CartStore interface {
	AddItems(ctx context.Context, sessionID string, items map[int64]int) error
	RemoveItem(ctx context.Context, sessionID string, itemID int64, quantity int) (models.RemoveOutcome, error)
	GetCart(ctx context.Context, sessionID string) (map[string]int, error)
	Clear(ctx context.Context, sessionID string) error
}

// Ledger finalizes carts into durable orders and answers tracking queries
type Ledger interface {
	Finalize(ctx context.Context, sessionID string) (*models.FinalizeResult, error)
	GetStatus(ctx context.Context, orderID int64) (string, bool, error)
	GetTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
}

// EventPublisher broadcasts placed orders to downstream consumers
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg models.OrderPlacedMessage) error
}

// Pinger reports durable-store liveness for health checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles the collaborators a Service needs
type Deps struct {
	Catalog Catalog
	Cart    CartStore
	Ledger  Ledger
	Events  EventPublisher
	DB      Pinger
}

// Service executes one cart operation per inbound intent
type Service struct {
	catalog Catalog
	cart    CartStore
	ledger  Ledger
	events  EventPublisher
	db      Pinger
	logger  *logger.Logger
}

// NewService creates a webhook service
func NewService(deps Deps, log *logger.Logger) *Service {
	return &Service{
		catalog: deps.Catalog,
		cart:    deps.Cart,
		ledger:  deps.Ledger,
		events:  deps.Events,
		db:      deps.DB,
		logger:  log,
	}
}

// NewOrder starts a fresh order by clearing the session's cart
func (s *Service) NewOrder(ctx context.Context, sessionID string) error {
	return s.cart.Clear(ctx, sessionID)
}

// AddItems resolves the requested names and merges the resolvable ones
// into the session's cart in a single unit of work. Unresolvable names
// are reported back, never silently dropped.
func (s *Service) AddItems(ctx context.Context, sessionID string, items map[string]int, requestID string) (*models.AddResult, error) {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}

	resolved, err := s.catalog.ResolveMany(ctx, names)
	if err != nil {
		return nil, err
	}

	increments := make(map[int64]int, len(resolved))
	var skipped []string
	for name, quantity := range items {
		item, ok := resolved[name]
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		increments[item.ID] = quantity
	}
	sort.Strings(skipped)

	if len(increments) > 0 {
		if err := s.cart.AddItems(ctx, sessionID, increments); err != nil {
			return nil, err
		}
	}

	cart, err := s.cart.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(skipped) > 0 {
		s.logger.Debug("items_skipped", "Some items are not on the menu", requestID, map[string]interface{}{
			"session_id": sessionID,
			"skipped":    skipped,
		})
	}

	return &models.AddResult{Cart: cart, Skipped: skipped}, nil
}

// RemoveItems decrements or deletes cart lines for each requested item
// in request order, accumulating per-item outcomes.
func (s *Service) RemoveItems(ctx context.Context, sessionID string, items []models.ItemRequest, requestID string) (*models.RemoveResult, error) {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}

	resolved, err := s.catalog.ResolveMany(ctx, names)
	if err != nil {
		return nil, err
	}

	result := &models.RemoveResult{}
	for _, item := range items {
		menuItem, ok := resolved[item.Name]
		if !ok {
			result.NotFound = append(result.NotFound, item.Name)
			continue
		}

		outcome, err := s.cart.RemoveItem(ctx, sessionID, menuItem.ID, item.Quantity)
		if err != nil {
			return nil, err
		}

		switch outcome {
		case models.Removed:
			result.Removed = append(result.Removed, models.RemovedItem{Name: item.Name, Quantity: item.Quantity})
		case models.AllRemoved:
			result.Removed = append(result.Removed, models.RemovedItem{Name: item.Name, All: true})
		case models.RemoveNotFound:
			result.NotFound = append(result.NotFound, item.Name)
		}
	}

	cart, err := s.cart.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result.Cart = cart

	return result, nil
}

// CompleteOrder finalizes the session's cart into a durable order and
// broadcasts the placed order. A publish failure does not undo the
// committed order; it is logged and the caller still gets the result.
func (s *Service) CompleteOrder(ctx context.Context, sessionID, requestID string) (*models.FinalizeResult, error) {
	result, err := s.ledger.Finalize(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_finalized", "Order placed", requestID, map[string]interface{}{
		"session_id": sessionID,
		"order_id":   result.OrderID,
		"total":      result.Total.String(),
	})

	if s.events != nil {
		msg := models.OrderPlacedMessage{
			OrderID:   result.OrderID,
			SessionID: sessionID,
			Total:     result.Total,
			Status:    models.StatusInProgress,
			Items:     result.Items,
			PlacedAt:  time.Now().UTC(),
		}
		if err := s.events.PublishOrderPlaced(ctx, msg); err != nil {
			s.logger.Error("order_event_publish_failed", "Failed to publish placed order", requestID, err, map[string]interface{}{
				"order_id": result.OrderID,
			})
		}
	}

	return result, nil
}

// TrackOrder looks up the latest tracking status for an order id
func (s *Service) TrackOrder(ctx context.Context, orderID int64) (*models.TrackResult, error) {
	status, found, err := s.ledger.GetStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &models.TrackResult{OrderID: orderID, Status: status, Found: found}, nil
}

// HealthCheck reports whether the durable store is reachable
func (s *Service) HealthCheck(ctx context.Context) bool {
	if s.db == nil {
		return true
	}
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}
