package service_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/service"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
)

// memState is a full copy of the data set. A transaction works on a clone and
// replaces the committed state only when its function succeeds.
type memState struct {
	customers   map[uuid.UUID]models.Customer
	products    map[uuid.UUID]models.Product
	prices      []models.ProductPrice
	warehouses  []models.Warehouse
	currencies  []models.Currency
	orders      map[uuid.UUID]models.Order
	items       map[uuid.UUID]models.OrderItem
	shipping    map[uuid.UUID]models.ShippingInfo
	inventory   map[stock.Key]models.InventoryItem
	movements   []models.StockMovement
	seq         int64
	pos         map[uuid.UUID]models.PurchaseOrder
	poItems     map[uuid.UUID]models.PurchaseOrderItem
	receivables map[receivableKey]models.CustomerTransaction

	faults *faults
}

type receivableKey struct {
	customerID  uuid.UUID
	orderNumber string
}

// faults is shared by every clone so tests can inject storage failures.
type faults struct {
	receivable error
	movement   error
}

func newMemState() *memState {
	return &memState{
		customers:   map[uuid.UUID]models.Customer{},
		products:    map[uuid.UUID]models.Product{},
		orders:      map[uuid.UUID]models.Order{},
		items:       map[uuid.UUID]models.OrderItem{},
		shipping:    map[uuid.UUID]models.ShippingInfo{},
		inventory:   map[stock.Key]models.InventoryItem{},
		pos:         map[uuid.UUID]models.PurchaseOrder{},
		poItems:     map[uuid.UUID]models.PurchaseOrderItem{},
		receivables: map[receivableKey]models.CustomerTransaction{},
		faults:      &faults{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		customers:   cloneMap(s.customers),
		products:    cloneMap(s.products),
		prices:      append([]models.ProductPrice(nil), s.prices...),
		warehouses:  append([]models.Warehouse(nil), s.warehouses...),
		currencies:  append([]models.Currency(nil), s.currencies...),
		orders:      cloneMap(s.orders),
		items:       cloneMap(s.items),
		shipping:    cloneMap(s.shipping),
		inventory:   cloneMap(s.inventory),
		movements:   append([]models.StockMovement(nil), s.movements...),
		seq:         s.seq,
		pos:         cloneMap(s.pos),
		poItems:     cloneMap(s.poItems),
		receivables: cloneMap(s.receivables),
		faults:      s.faults,
	}
}

func (s *memState) repos() service.Repos {
	return service.Repos{
		Customers:   memCustomers{s},
		Products:    memProducts{s},
		Warehouses:  memWarehouses{s},
		Currencies:  memCurrencies{s},
		Orders:      memOrders{s},
		OrderItems:  memOrderItems{s},
		Shipping:    memShipping{s},
		Inventory:   memInventory{s},
		Movements:   memMovements{s},
		Purchases:   memPurchases{s},
		Receivables: memReceivables{s},
	}
}

type memStore struct {
	mu sync.Mutex
	st *memState
}

func newMemStore() *memStore { return &memStore{st: newMemState()} }

func (m *memStore) state() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

func (m *memStore) Repos() service.Repos { return m.state().repos() }

func (m *memStore) WithTx(_ context.Context, fn func(r service.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.st.clone()
	if err := fn(tx.repos()); err != nil {
		return err
	}
	m.st = tx
	return nil
}

func idOr(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

type memCustomers struct{ s *memState }

func (r memCustomers) Create(_ context.Context, c *models.Customer) error {
	c.ID = idOr(c.ID)
	r.s.customers[c.ID] = *c
	return nil
}

func (r memCustomers) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	if c, ok := r.s.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r memCustomers) FindByCode(_ context.Context, code string) (*models.Customer, error) {
	for _, c := range r.s.customers {
		if strings.EqualFold(c.Code, strings.TrimSpace(code)) {
			return &c, nil
		}
	}
	return nil, nil
}

type memProducts struct{ s *memState }

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	p.ID = idOr(p.ID)
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) CreatePrice(_ context.Context, p *models.ProductPrice) error {
	p.ID = idOr(p.ID)
	r.s.prices = append(r.s.prices, *p)
	return nil
}

func (r memProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := r.s.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r memProducts) FindBySKU(_ context.Context, sku string) (*models.Product, error) {
	for _, p := range r.s.products {
		if strings.EqualFold(p.SKU, strings.TrimSpace(sku)) {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memProducts) FindBySKUs(_ context.Context, skus []string) ([]models.Product, error) {
	want := map[string]bool{}
	for _, s := range skus {
		want[strings.ToLower(strings.TrimSpace(s))] = true
	}
	out := []models.Product{}
	for _, p := range r.s.products {
		if want[strings.ToLower(p.SKU)] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) ActivePrices(_ context.Context, productIDs []uuid.UUID, at time.Time) ([]models.ProductPrice, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range productIDs {
		want[id] = true
	}
	out := []models.ProductPrice{}
	for _, p := range r.s.prices {
		if want[p.ProductID] && p.ActiveAt(at) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ValidFrom.After(out[j].ValidFrom) })
	return out, nil
}

type memWarehouses struct{ s *memState }

func (r memWarehouses) Create(_ context.Context, w *models.Warehouse) error {
	w.ID = idOr(w.ID)
	r.s.warehouses = append(r.s.warehouses, *w)
	return nil
}

func (r memWarehouses) ListActive(_ context.Context) ([]models.Warehouse, error) {
	out := []models.Warehouse{}
	for _, w := range r.s.warehouses {
		if w.IsActive {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memCurrencies struct{ s *memState }

func (r memCurrencies) Create(_ context.Context, c *models.Currency) error {
	c.ID = idOr(c.ID)
	r.s.currencies = append(r.s.currencies, *c)
	return nil
}

func (r memCurrencies) ListActive(_ context.Context) ([]models.Currency, error) {
	out := []models.Currency{}
	for _, c := range r.s.currencies {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memOrders struct{ s *memState }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	for _, existing := range r.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return errors.New("duplicate order number")
		}
	}
	o.ID = idOr(o.ID)
	r.s.orders[o.ID] = *o
	return nil
}

func (r memOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := r.s.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.GetByID(ctx, id)
}

func (r memOrders) Update(_ context.Context, o *models.Order) error {
	if _, ok := r.s.orders[o.ID]; !ok {
		return errors.New("order not found")
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r memOrders) List(_ context.Context, f repository.OrderListFilter) ([]models.Order, int64, error) {
	out := []models.Order{}
	for _, o := range r.s.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	total := int64(len(out))
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset >= len(out) {
		return []models.Order{}, total, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

type memOrderItems struct{ s *memState }

func (r memOrderItems) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		if err := r.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r memOrderItems) Create(_ context.Context, item *models.OrderItem) error {
	if item.Quantity <= 0 {
		return errors.New("check violation: quantity > 0")
	}
	item.ID = idOr(item.ID)
	r.s.items[item.ID] = *item
	return nil
}

func (r memOrderItems) Update(_ context.Context, item *models.OrderItem) error {
	if _, ok := r.s.items[item.ID]; !ok {
		return errors.New("order item not found")
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memOrderItems) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.s.items[id]
	delete(r.s.items, id)
	return ok, nil
}

func (r memOrderItems) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	out := []models.OrderItem{}
	for _, it := range r.s.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

type memShipping struct{ s *memState }

func (r memShipping) Get(_ context.Context, orderID uuid.UUID) (*models.ShippingInfo, error) {
	if s, ok := r.s.shipping[orderID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r memShipping) Upsert(_ context.Context, s *models.ShippingInfo) error {
	r.s.shipping[s.OrderID] = *s
	return nil
}

type memInventory struct{ s *memState }

func (r memInventory) GetOrCreate(_ context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	k := stock.Key{ProductID: productID, WarehouseID: warehouseID}
	it, ok := r.s.inventory[k]
	if !ok {
		it = models.InventoryItem{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID}
		r.s.inventory[k] = it
	}
	return &it, nil
}

func (r memInventory) Update(_ context.Context, item *models.InventoryItem) error {
	k := stock.Key{ProductID: item.ProductID, WarehouseID: item.WarehouseID}
	if _, ok := r.s.inventory[k]; !ok {
		return errors.New("inventory item not found")
	}
	if item.QuantityReserved < 0 {
		return errors.New("check violation: quantity_reserved >= 0")
	}
	r.s.inventory[k] = *item
	return nil
}

func (r memInventory) Get(_ context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	if it, ok := r.s.inventory[stock.Key{ProductID: productID, WarehouseID: warehouseID}]; ok {
		return &it, nil
	}
	return nil, nil
}

func (r memInventory) ListByProduct(_ context.Context, productID uuid.UUID) ([]models.InventoryItem, error) {
	out := []models.InventoryItem{}
	for _, it := range r.s.inventory {
		if it.ProductID == productID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r memInventory) ListPage(_ context.Context, afterID uuid.UUID, limit int) ([]models.InventoryItem, error) {
	out := []models.InventoryItem{}
	for _, it := range r.s.inventory {
		if bytes.Compare(it.ID[:], afterID[:]) > 0 {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memMovements struct{ s *memState }

func (r memMovements) Append(_ context.Context, m *models.StockMovement) error {
	if r.s.faults.movement != nil {
		return r.s.faults.movement
	}
	if m.OnHandAfter != m.OnHandBefore+m.OnHandDelta || m.ReservedAfter != m.ReservedBefore+m.ReservedDelta || m.ReservedAfter < 0 {
		return errors.New("check violation: stock movement arithmetic")
	}
	r.s.seq++
	m.ID = idOr(m.ID)
	m.Seq = r.s.seq
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r memMovements) List(_ context.Context, f repository.MovementListFilter) ([]models.StockMovement, int64, error) {
	out := []models.StockMovement{}
	for _, m := range r.s.movements {
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.WarehouseID != nil && m.WarehouseID != *f.WarehouseID {
			continue
		}
		if f.SourceKind != nil && m.SourceKind != *f.SourceKind {
			continue
		}
		if f.SourceID != nil && m.SourceID != *f.SourceID {
			continue
		}
		out = append(out, m)
	}
	total := int64(len(out))
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset >= len(out) {
		return []models.StockMovement{}, total, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r memMovements) Latest(_ context.Context, productID, warehouseID uuid.UUID) (*models.StockMovement, error) {
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r memMovements) Inconsistent(_ context.Context, _ int) ([]models.StockMovement, error) {
	return []models.StockMovement{}, nil
}

type memPurchases struct{ s *memState }

func (r memPurchases) Create(_ context.Context, po *models.PurchaseOrder, items []models.PurchaseOrderItem) error {
	po.ID = idOr(po.ID)
	if po.Status == "" {
		po.Status = models.PurchaseOrderOpen
	}
	r.s.pos[po.ID] = *po
	for i := range items {
		items[i].ID = idOr(items[i].ID)
		items[i].PurchaseOrderID = po.ID
		r.s.poItems[items[i].ID] = items[i]
	}
	return nil
}

func (r memPurchases) GetByID(_ context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if po, ok := r.s.pos[id]; ok {
		return &po, nil
	}
	return nil, nil
}

func (r memPurchases) SumOpenQuantityByProduct(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range productIDs {
		want[id] = true
	}
	out := map[uuid.UUID]int64{}
	for _, it := range r.s.poItems {
		if !want[it.ProductID] || r.s.pos[it.PurchaseOrderID].Status != models.PurchaseOrderOpen {
			continue
		}
		if open := it.Open(); open > 0 {
			out[it.ProductID] += open
		}
	}
	return out, nil
}

func (r memPurchases) GetItemForUpdate(_ context.Context, itemID uuid.UUID) (*models.PurchaseOrderItem, error) {
	if it, ok := r.s.poItems[itemID]; ok {
		return &it, nil
	}
	return nil, nil
}

func (r memPurchases) UpdateReceived(_ context.Context, itemID uuid.UUID, received int64) error {
	it, ok := r.s.poItems[itemID]
	if !ok {
		return errors.New("purchase order item not found")
	}
	it.ReceivedQuantity = received
	r.s.poItems[itemID] = it
	return nil
}

func (r memPurchases) CloseIfFullyReceived(_ context.Context, purchaseOrderID uuid.UUID) (bool, error) {
	po, ok := r.s.pos[purchaseOrderID]
	if !ok || po.Status != models.PurchaseOrderOpen {
		return false, nil
	}
	for _, it := range r.s.poItems {
		if it.PurchaseOrderID == purchaseOrderID && it.Open() > 0 {
			return false, nil
		}
	}
	po.Status = models.PurchaseOrderClosed
	r.s.pos[purchaseOrderID] = po
	return true, nil
}

type memReceivables struct{ s *memState }

func (r memReceivables) UpsertReceivable(_ context.Context, t *models.CustomerTransaction) error {
	if r.s.faults.receivable != nil {
		return r.s.faults.receivable
	}
	k := receivableKey{customerID: t.CustomerID, orderNumber: t.OrderNumber}
	if existing, ok := r.s.receivables[k]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	}
	t.ID = idOr(t.ID)
	r.s.receivables[k] = *t
	return nil
}

func (r memReceivables) Get(_ context.Context, customerID uuid.UUID, orderNumber string) (*models.CustomerTransaction, error) {
	if t, ok := r.s.receivables[receivableKey{customerID: customerID, orderNumber: orderNumber}]; ok {
		return &t, nil
	}
	return nil, nil
}
