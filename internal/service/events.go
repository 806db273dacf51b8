package service

import (
	"context"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
)

type OrderImportedEvent struct {
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	CustomerID  uuid.UUID          `json:"customer_id"`
	Status      models.OrderStatus `json:"status"`
	Lines       int                `json:"lines"`
	GrandTotal  string             `json:"grand_total"`
	ImportedAt  time.Time          `json:"imported_at"`
}

type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	From        models.OrderStatus `json:"from"`
	To          models.OrderStatus `json:"to"`
	Movements   int                `json:"movements"`
	ChangedAt   time.Time          `json:"changed_at"`
}

// EventBus is notified after commit. A publish failure never undoes the
// committed change.
type EventBus interface {
	PublishOrderImported(ctx context.Context, e OrderImportedEvent) error
	PublishOrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error
}
