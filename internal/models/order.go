package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept by the numeric(18,4)
// money columns.
const MoneyScale int32 = 4

type OrderStatus string

const (
	OrderStatusDraft                    OrderStatus = "DRAFT"
	OrderStatusPending                  OrderStatus = "PENDING"
	OrderStatusPreOrder                 OrderStatus = "PRE_ORDER"
	OrderStatusApproved                 OrderStatus = "APPROVED"
	OrderStatusPackedAndWaitingShipment OrderStatus = "PACKED_AND_WAITING_SHIPMENT"
	OrderStatusShipped                  OrderStatus = "SHIPPED"
	OrderStatusCanceled                 OrderStatus = "CANCELED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPending,
	OrderStatusPreOrder,
	OrderStatusApproved,
	OrderStatusPackedAndWaitingShipment,
	OrderStatusShipped,
	OrderStatusCanceled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusShipped || s == OrderStatusCanceled
}

// Order is the aggregate root header. Items and shipping info are stored in
// their own tables and loaded explicitly by order id.
type Order struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID   `gorm:"type:uuid;not null;index"`
	OrderNumber string      `gorm:"type:text;not null;uniqueIndex:ux_orders_number"`
	OrderedAt   time.Time   `gorm:"not null"`
	Status      OrderStatus `gorm:"type:text;not null;default:'DRAFT';index"`
	IsCanceled  bool        `gorm:"not null;default:false"`
	CurrencyID  uuid.UUID   `gorm:"type:uuid;not null"`
	Season      string      `gorm:"type:text"`
	Notes       string      `gorm:"type:text"`

	DiscountPercent decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0"`
	SubTotal        decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	TotalDiscount   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	TaxableAmount   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	GrandTotal      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	TotalQuantity   int64           `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:text;not null"`
	ProductSKU  string          `gorm:"type:text;not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	WarehouseID *uuid.UUID      `gorm:"type:uuid"`
	Notes       string          `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }

type ShippingInfo struct {
	OrderID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientName  string    `gorm:"type:text"`
	Phone          string    `gorm:"type:text"`
	Address        string    `gorm:"type:text"`
	City           string    `gorm:"type:text"`
	Country        string    `gorm:"type:text"`
	Carrier        string    `gorm:"type:text"`
	TrackingNumber string    `gorm:"type:text"`

	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (ShippingInfo) TableName() string { return "order_shipping_infos" }

// CustomerTransaction mirrors an order's receivable; one row per
// (customer, order number).
type CustomerTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_customer_transactions_order"`
	OrderNumber     string          `gorm:"type:text;not null;uniqueIndex:ux_customer_transactions_order"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TransactionDate time.Time       `gorm:"not null"`
	Description     string          `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (CustomerTransaction) TableName() string { return "customer_transactions" }
