package dto

import (
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
)

type AdjustStockRequest struct {
	ProductID   uuid.UUID  `json:"product_id" binding:"required"`
	WarehouseID *uuid.UUID `json:"warehouse_id"`
	OnHandDelta int64      `json:"on_hand_delta" binding:"required"`
	Reference   string     `json:"reference"`
	Note        string     `json:"note"`
}

type ReceivePurchaseRequest struct {
	PurchaseOrderItemID uuid.UUID `json:"purchase_order_item_id" binding:"required"`
	Quantity            int64     `json:"quantity" binding:"required"`
}

type MovementResponse struct {
	ID             uuid.UUID `json:"id"`
	Seq            int64     `json:"seq"`
	ProductID      uuid.UUID `json:"product_id"`
	WarehouseID    uuid.UUID `json:"warehouse_id"`
	Kind           string    `json:"kind"`
	OnHandBefore   int64     `json:"on_hand_before"`
	OnHandDelta    int64     `json:"on_hand_delta"`
	OnHandAfter    int64     `json:"on_hand_after"`
	ReservedBefore int64     `json:"reserved_before"`
	ReservedDelta  int64     `json:"reserved_delta"`
	ReservedAfter  int64     `json:"reserved_after"`
	SourceKind     string    `json:"source_kind"`
	SourceID       uuid.UUID `json:"source_id"`
	Reference      string    `json:"reference,omitempty"`
	Description    string    `json:"description,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type MovementListResponse struct {
	Movements []MovementResponse `json:"movements"`
	Total     int64              `json:"total"`
}

func FromMovement(m models.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		Seq:            m.Seq,
		ProductID:      m.ProductID,
		WarehouseID:    m.WarehouseID,
		Kind:           string(m.Kind),
		OnHandBefore:   m.OnHandBefore,
		OnHandDelta:    m.OnHandDelta,
		OnHandAfter:    m.OnHandAfter,
		ReservedBefore: m.ReservedBefore,
		ReservedDelta:  m.ReservedDelta,
		ReservedAfter:  m.ReservedAfter,
		SourceKind:     string(m.SourceKind),
		SourceID:       m.SourceID,
		Reference:      m.Reference,
		Description:    m.Description,
		OccurredAt:     m.OccurredAt,
	}
}
