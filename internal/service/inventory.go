package service

import (
	"context"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"

	"github.com/google/uuid"
)

type AdjustStockInput struct {
	ProductID uuid.UUID
	// WarehouseID nil means the default warehouse.
	WarehouseID *uuid.UUID
	OnHandDelta int64
	Reference   string
	Note        string
}

type ReceivePurchaseInput struct {
	PurchaseOrderItemID uuid.UUID
	Quantity            int64
}

type AvailabilityView struct {
	ProductID        uuid.UUID `json:"product_id"`
	WarehouseID      uuid.UUID `json:"warehouse_id"`
	OnHand           int64     `json:"on_hand"`
	Reserved         int64     `json:"reserved"`
	Available        int64     `json:"available"`
	Incoming         int64     `json:"incoming"`
	PreorderCapacity int64     `json:"preorder_capacity"`
}

type MovementFilter = repository.MovementListFilter

type InventoryService interface {
	// AdjustStock corrects on-hand after a stock count.
	AdjustStock(ctx context.Context, in AdjustStockInput) (*models.StockMovement, error)
	// ReceivePurchase books received purchase-order quantity into on-hand.
	ReceivePurchase(ctx context.Context, in ReceivePurchaseInput) (*models.StockMovement, error)
	Availability(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*AvailabilityView, error)
	Movements(ctx context.Context, f MovementFilter) ([]models.StockMovement, int64, error)
}
