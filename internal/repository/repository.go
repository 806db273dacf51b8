package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB          *gorm.DB
	Customers   CustomerRepo
	Products    ProductRepo
	Warehouses  WarehouseRepo
	Currencies  CurrencyRepo
	Orders      OrderRepo
	OrderItems  OrderItemRepo
	Shipping    ShippingRepo
	Inventory   InventoryRepo
	Movements   StockMovementRepo
	Purchases   PurchaseRepo
	Receivables ReceivableRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:          db,
		Customers:   NewCustomerRepo(db),
		Products:    NewProductRepo(db),
		Warehouses:  NewWarehouseRepo(db),
		Currencies:  NewCurrencyRepo(db),
		Orders:      NewOrderRepo(db),
		OrderItems:  NewOrderItemRepo(db),
		Shipping:    NewShippingRepo(db),
		Inventory:   NewInventoryRepo(db),
		Movements:   NewStockMovementRepo(db),
		Purchases:   NewPurchaseRepo(db),
		Receivables: NewReceivableRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// Глобальная транзакция на весь набор репо
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
