package service

import (
	"context"
	"time"

	"backoffice-service/internal/repository"
	"backoffice-service/internal/stock"
)

// Repos is the set of stores one unit of work operates on.
type Repos struct {
	Customers   repository.CustomerRepo
	Products    repository.ProductRepo
	Warehouses  repository.WarehouseRepo
	Currencies  repository.CurrencyRepo
	Orders      repository.OrderRepo
	OrderItems  repository.OrderItemRepo
	Shipping    repository.ShippingRepo
	Inventory   repository.InventoryRepo
	Movements   repository.StockMovementRepo
	Purchases   repository.PurchaseRepo
	Receivables repository.ReceivableRepo
}

func (r Repos) stockStores() stock.Stores {
	return stock.Stores{Inventory: r.Inventory, Movements: r.Movements}
}

// Store is the persistence boundary. WithTx runs fn in one transaction: if fn
// returns an error nothing it wrote is kept.
type Store interface {
	Repos() Repos
	WithTx(ctx context.Context, fn func(r Repos) error) error
}

// ImportLock guards an import fingerprint across service instances.
type ImportLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Options carries the configured defaults shared by all services.
type Options struct {
	DefaultWarehouseCode string
	BaseCurrencyCode     string
	ImportLockTTL        time.Duration
	Now                  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.ImportLockTTL <= 0 {
		o.ImportLockTTL = 2 * time.Minute
	}
	return o
}
