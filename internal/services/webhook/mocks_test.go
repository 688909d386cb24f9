package webhook

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"bytebowl/internal/models"
	"bytebowl/internal/services/ledger"
)

// mockCatalog is an in-memory menu with exact-name resolution
type mockCatalog struct {
	items map[string]models.MenuItem
}

func newMockCatalog() *mockCatalog {
	menu := []models.MenuItem{
		{ID: 1, Name: "Pizza", Price: decimal.NewFromInt(250)},
		{ID: 2, Name: "Chole Bhature", Price: decimal.NewFromInt(120)},
		{ID: 3, Name: "Samosa", Price: decimal.NewFromInt(25)},
		{ID: 4, Name: "Mango Lassi", Price: decimal.NewFromInt(60)},
	}

	items := make(map[string]models.MenuItem, len(menu))
	for _, item := range menu {
		items[item.Name] = item
	}
	return &mockCatalog{items: items}
}

func (c *mockCatalog) Resolve(ctx context.Context, name string) (models.MenuItem, bool, error) {
	item, ok := c.items[name]
	return item, ok, nil
}

func (c *mockCatalog) ResolveMany(ctx context.Context, names []string) (map[string]models.MenuItem, error) {
	resolved := make(map[string]models.MenuItem, len(names))
	for _, name := range names {
		if item, ok := c.items[name]; ok {
			resolved[name] = item
		}
	}
	return resolved, nil
}

func (c *mockCatalog) byID(id int64) (models.MenuItem, bool) {
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.MenuItem{}, false
}

// mockCartStore keeps carts in memory with the store's merge and
// tie-break contract
type mockCartStore struct {
	catalog *mockCatalog
	carts   map[string]map[int64]int
	failErr error
}

func newMockCartStore(catalog *mockCatalog) *mockCartStore {
	return &mockCartStore{
		catalog: catalog,
		carts:   make(map[string]map[int64]int),
	}
}

func (s *mockCartStore) AddItems(ctx context.Context, sessionID string, items map[int64]int) error {
	if s.failErr != nil {
		return s.failErr
	}

	lines, ok := s.carts[sessionID]
	if !ok {
		lines = make(map[int64]int)
		s.carts[sessionID] = lines
	}
	for itemID, quantity := range items {
		lines[itemID] += quantity
	}
	return nil
}

func (s *mockCartStore) RemoveItem(ctx context.Context, sessionID string, itemID int64, quantity int) (models.RemoveOutcome, error) {
	if s.failErr != nil {
		return models.RemoveNotFound, s.failErr
	}

	lines := s.carts[sessionID]
	current, ok := lines[itemID]
	if !ok {
		return models.RemoveNotFound, nil
	}

	if current > quantity {
		lines[itemID] = current - quantity
		return models.Removed, nil
	}
	delete(lines, itemID)
	return models.AllRemoved, nil
}

func (s *mockCartStore) GetCart(ctx context.Context, sessionID string) (map[string]int, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}

	cart := make(map[string]int)
	for itemID, quantity := range s.carts[sessionID] {
		if item, ok := s.catalog.byID(itemID); ok {
			cart[item.Name] = quantity
		}
	}
	return cart, nil
}

func (s *mockCartStore) Clear(ctx context.Context, sessionID string) error {
	if s.failErr != nil {
		return s.failErr
	}
	delete(s.carts, sessionID)
	return nil
}

// lineCount reports how many cart lines a session holds
func (s *mockCartStore) lineCount(sessionID string) int {
	return len(s.carts[sessionID])
}

// mockLedger finalizes against the mock cart store with the same
// snapshot / allocate / write / clear contract as the real ledger
type mockLedger struct {
	catalog  *mockCatalog
	cart     *mockCartStore
	maxID    int64
	orders   map[int64][]models.OrderPlacedItem
	tracking map[int64][]string
	failErr  error
}

func newMockLedger(catalog *mockCatalog, cart *mockCartStore) *mockLedger {
	return &mockLedger{
		catalog:  catalog,
		cart:     cart,
		orders:   make(map[int64][]models.OrderPlacedItem),
		tracking: make(map[int64][]string),
	}
}

func (l *mockLedger) Finalize(ctx context.Context, sessionID string) (*models.FinalizeResult, error) {
	if l.failErr != nil {
		return nil, l.failErr
	}

	lines := l.cart.carts[sessionID]
	if len(lines) == 0 {
		return nil, ledger.ErrEmptyCart
	}

	itemIDs := make([]int64, 0, len(lines))
	for itemID := range lines {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	result := &models.FinalizeResult{Total: decimal.Zero}
	for _, itemID := range itemIDs {
		item, ok := l.catalog.byID(itemID)
		if !ok {
			continue
		}
		quantity := lines[itemID]
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(quantity)))
		result.Items = append(result.Items, models.OrderPlacedItem{
			Name:      item.Name,
			Quantity:  quantity,
			LineTotal: lineTotal,
		})
		result.Total = result.Total.Add(lineTotal)
	}

	if len(result.Items) == 0 {
		return nil, ledger.ErrNoValidItems
	}

	l.maxID++
	result.OrderID = l.maxID
	l.orders[result.OrderID] = result.Items
	l.tracking[result.OrderID] = append(l.tracking[result.OrderID], string(models.StatusInProgress))
	delete(l.cart.carts, sessionID)

	return result, nil
}

func (l *mockLedger) GetStatus(ctx context.Context, orderID int64) (string, bool, error) {
	trail, ok := l.tracking[orderID]
	if !ok || len(trail) == 0 {
		return "", false, nil
	}
	return trail[len(trail)-1], true, nil
}

func (l *mockLedger) GetTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range l.orders[orderID] {
		total = total.Add(item.LineTotal)
	}
	return total, nil
}

// mockPublisher records published order events
type mockPublisher struct {
	published []models.OrderPlacedMessage
	failErr   error
}

func (p *mockPublisher) PublishOrderPlaced(ctx context.Context, msg models.OrderPlacedMessage) error {
	if p.failErr != nil {
		return p.failErr
	}
	p.published = append(p.published, msg)
	return nil
}

// newTestService wires a service over the in-memory mocks
func newTestService() (*Service, *mockCartStore, *mockLedger, *mockPublisher) {
	catalog := newMockCatalog()
	cart := newMockCartStore(catalog)
	led := newMockLedger(catalog, cart)
	events := &mockPublisher{}

	service := NewService(Deps{
		Catalog: catalog,
		Cart:    cart,
		Ledger:  led,
		Events:  events,
	}, testLogger())

	return service, cart, led, events
}
