package service

import (
	"context"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderAggregate is an order header with its explicitly loaded lines and
// shipping info.
type OrderAggregate struct {
	Order    models.Order
	Items    []models.OrderItem
	Shipping *models.ShippingInfo
}

type UpdateLineInput struct {
	OrderID     uuid.UUID
	ProductCode string
	Quantity    int64
	// Price nil keeps the current price of an existing line, or takes the
	// product's active price for a new one.
	Price *decimal.Decimal
	Notes *string
}

type ShippingInput struct {
	RecipientName  string
	Phone          string
	Address        string
	City           string
	Country        string
	Carrier        string
	TrackingNumber string
}

type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *models.OrderStatus
	Limit      int
	Offset     int
}

type OrderService interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderAggregate, error)
	ListOrders(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
	// ChangeStatus moves the order to status, applying the stock effect of
	// the transition and refreshing totals and the receivable.
	ChangeStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*OrderAggregate, error)
	// UpdateLine updates the first line matching the product code or appends
	// a new one. It never touches stock.
	UpdateLine(ctx context.Context, in UpdateLineInput) (*OrderAggregate, error)
	// RemoveLine deletes the first line matching the product code and reports
	// whether one was found. Stock already reserved or consumed for the line
	// is left as is until the next status change.
	RemoveLine(ctx context.Context, id uuid.UUID, productCode string) (bool, error)
	SetDiscount(ctx context.Context, id uuid.UUID, percent decimal.Decimal) (*OrderAggregate, error)
	SetShipping(ctx context.Context, id uuid.UUID, in ShippingInput) (*OrderAggregate, error)
}
