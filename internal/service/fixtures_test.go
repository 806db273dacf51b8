package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type world struct {
	store     *memStore
	customer  models.Customer
	warehouse models.Warehouse
	currency  models.Currency
	events    *fakeBus
	opts      service.Options
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		store:  newMemStore(),
		events: &fakeBus{},
		opts:   service.Options{Now: func() time.Time { return testNow }},
	}
	r := w.store.Repos()
	ctx := context.Background()

	w.customer = models.Customer{Code: "CUST1", Name: "First Customer", IsActive: true}
	require.NoError(t, r.Customers.Create(ctx, &w.customer))

	w.warehouse = models.Warehouse{Code: "MAIN", Name: "Main warehouse", IsDefault: true, IsActive: true}
	require.NoError(t, r.Warehouses.Create(ctx, &w.warehouse))

	w.currency = models.Currency{Code: "TRY", Name: "Turkish lira", IsBase: true, IsActive: true}
	require.NoError(t, r.Currencies.Create(ctx, &w.currency))
	return w
}

// product creates a product with one active price and, when onHand is
// non-zero, an inventory row in the default warehouse.
func (w *world) product(t *testing.T, sku, price string, onHand int64) models.Product {
	t.Helper()
	ctx := context.Background()
	r := w.store.Repos()

	p := models.Product{SKU: sku, Name: "Product " + sku, IsActive: true}
	require.NoError(t, r.Products.Create(ctx, &p))
	if price != "" {
		require.NoError(t, r.Products.CreatePrice(ctx, &models.ProductPrice{
			ProductID: p.ID,
			Price:     decimal.RequireFromString(price),
			ValidFrom: testNow.AddDate(0, -1, 0),
			IsActive:  true,
		}))
	}
	if onHand != 0 {
		w.setStock(p.ID, onHand, 0)
	}
	return p
}

func (w *world) setStock(productID uuid.UUID, onHand, reserved int64) {
	st := w.store.state()
	k := stock.Key{ProductID: productID, WarehouseID: w.warehouse.ID}
	it, ok := st.inventory[k]
	if !ok {
		it = models.InventoryItem{ID: uuid.New(), ProductID: productID, WarehouseID: w.warehouse.ID}
	}
	it.QuantityOnHand, it.QuantityReserved = onHand, reserved
	st.inventory[k] = it
}

func (w *world) stockOf(productID uuid.UUID) (onHand, reserved int64, exists bool) {
	it, ok := w.store.state().inventory[stock.Key{ProductID: productID, WarehouseID: w.warehouse.ID}]
	return it.QuantityOnHand, it.QuantityReserved, ok
}

func (w *world) movements() []models.StockMovement {
	return w.store.state().movements
}

func (w *world) orderCount() int { return len(w.store.state().orders) }

func (w *world) itemCount() int { return len(w.store.state().items) }

func (w *world) receivable(t *testing.T, o models.Order) models.CustomerTransaction {
	t.Helper()
	rt, err := w.store.Repos().Receivables.Get(context.Background(), o.CustomerID, o.OrderNumber)
	require.NoError(t, err)
	require.NotNil(t, rt)
	return *rt
}

func (w *world) incoming(t *testing.T, productID uuid.UUID, ordered, received int64) models.PurchaseOrderItem {
	t.Helper()
	po := models.PurchaseOrder{Number: "PO-" + uuid.NewString()[:6], Status: models.PurchaseOrderOpen, OrderedAt: testNow}
	items := []models.PurchaseOrderItem{{ProductID: productID, Quantity: ordered, ReceivedQuantity: received}}
	require.NoError(t, w.store.Repos().Purchases.Create(context.Background(), &po, items))
	return items[0]
}

func (w *world) importService(lock service.ImportLock) service.ImportService {
	return service.NewImportService(w.store, lock, w.events, zap.NewNop(), w.opts)
}

func (w *world) orderService() service.OrderService {
	return service.NewOrderService(w.store, w.events, zap.NewNop(), w.opts)
}

func (w *world) inventoryService() service.InventoryService {
	return service.NewInventoryService(w.store, zap.NewNop(), w.opts)
}

// importOne imports the rows as one order and requires it to succeed.
func (w *world) importOne(t *testing.T, typ service.OrderType, rows ...service.ImportRow) *service.ImportReport {
	t.Helper()
	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: w.customer.Code,
		OrderType:    typ,
		Rows:         rows,
	})
	require.NoError(t, err)
	require.False(t, rep.Rejected, "import rejected: %+v", rep.Errors)
	require.NotNil(t, rep.OrderID)
	return rep
}

func requireLedgerInvariant(t *testing.T, rows []models.StockMovement) {
	t.Helper()
	for _, r := range rows {
		require.Equal(t, r.OnHandBefore+r.OnHandDelta, r.OnHandAfter, "seq %d", r.Seq)
		require.Equal(t, r.ReservedBefore+r.ReservedDelta, r.ReservedAfter, "seq %d", r.Seq)
		require.GreaterOrEqual(t, r.ReservedAfter, int64(0), "seq %d", r.Seq)
	}
}

type fakeBus struct {
	mu       sync.Mutex
	imported []service.OrderImportedEvent
	changed  []service.OrderStatusChangedEvent
	err      error
}

func (b *fakeBus) PublishOrderImported(_ context.Context, e service.OrderImportedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.imported = append(b.imported, e)
	return b.err
}

func (b *fakeBus) PublishOrderStatusChanged(_ context.Context, e service.OrderStatusChangedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changed = append(b.changed, e)
	return b.err
}

type fakeLock struct {
	held     map[string]string
	unlocked []string
	err      error
}

func newFakeLock() *fakeLock { return &fakeLock{held: map[string]string{}} }

func (l *fakeLock) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *fakeLock) Unlock(_ context.Context, key, token string) error {
	if l.held[key] == token {
		delete(l.held, key)
		l.unlocked = append(l.unlocked, key)
	}
	return nil
}
