package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem holds the canonical counters for a (product, warehouse) pair.
type InventoryItem struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_items_product_warehouse"`
	WarehouseID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_items_product_warehouse"`
	QuantityOnHand   int64     `gorm:"not null;default:0"`
	QuantityReserved int64     `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

type MovementKind string

const (
	MovementSale            MovementKind = "SALE"
	MovementSaleRevert      MovementKind = "SALE_REVERT"
	MovementReserve         MovementKind = "RESERVE"
	MovementUnreserve       MovementKind = "UNRESERVE"
	MovementAdjustment      MovementKind = "ADJUSTMENT"
	MovementPurchaseReceipt MovementKind = "PURCHASE_RECEIPT"
)

// SourceKind is the closed set of documents that can cause a stock movement.
type SourceKind string

const (
	SourceImportedSalesOrder    SourceKind = "IMPORTED_SALES_ORDER"
	SourceOrderStatusTransition SourceKind = "ORDER_STATUS_TRANSITION"
	SourceManualAdjustment      SourceKind = "MANUAL_ADJUSTMENT"
	SourcePurchaseOrder         SourceKind = "PURCHASE_ORDER"
)

// StockMovement is an append-only ledger row. Rows are never updated or
// deleted; Seq gives the total order of writes.
type StockMovement struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Seq         int64        `gorm:"autoIncrement;not null;uniqueIndex:ux_stock_movements_seq"`
	ProductID   uuid.UUID    `gorm:"type:uuid;not null;index:ix_stock_movements_key,priority:1"`
	WarehouseID uuid.UUID    `gorm:"type:uuid;not null;index:ix_stock_movements_key,priority:2"`
	Kind        MovementKind `gorm:"type:text;not null"`

	OnHandDelta    int64 `gorm:"not null"`
	OnHandBefore   int64 `gorm:"not null"`
	OnHandAfter    int64 `gorm:"not null"`
	ReservedDelta  int64 `gorm:"not null"`
	ReservedBefore int64 `gorm:"not null"`
	ReservedAfter  int64 `gorm:"not null"`

	SourceKind  SourceKind `gorm:"type:text;not null;index:ix_stock_movements_source,priority:1"`
	SourceID    uuid.UUID  `gorm:"type:uuid;not null;index:ix_stock_movements_source,priority:2"`
	Reference   string     `gorm:"type:text"`
	Description string     `gorm:"type:text"`
	OccurredAt  time.Time  `gorm:"not null;index"`
}

func (StockMovement) TableName() string { return "stock_movements" }

type PurchaseOrderStatus string

const (
	PurchaseOrderOpen     PurchaseOrderStatus = "OPEN"
	PurchaseOrderClosed   PurchaseOrderStatus = "CLOSED"
	PurchaseOrderCanceled PurchaseOrderStatus = "CANCELED"
)

type PurchaseOrder struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Number      string              `gorm:"type:text;not null;uniqueIndex:ux_purchase_orders_number"`
	Status      PurchaseOrderStatus `gorm:"type:text;not null;default:'OPEN';index"`
	WarehouseID *uuid.UUID          `gorm:"type:uuid"`
	OrderedAt   time.Time           `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

type PurchaseOrderItem struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity         int64     `gorm:"not null"`
	ReceivedQuantity int64     `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (PurchaseOrderItem) TableName() string { return "purchase_order_items" }

// Open returns the quantity still expected for the line.
func (i PurchaseOrderItem) Open() int64 {
	if d := i.Quantity - i.ReceivedQuantity; d > 0 {
		return d
	}
	return 0
}
