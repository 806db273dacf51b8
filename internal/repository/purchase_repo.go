package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepo interface {
	Create(ctx context.Context, po *models.PurchaseOrder, items []models.PurchaseOrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	// SumOpenQuantityByProduct sums positive (ordered - received) over the
	// lines of OPEN purchase orders, for every warehouse. Products without
	// open lines are absent from the map.
	SumOpenQuantityByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.PurchaseOrderItem, error)
	UpdateReceived(ctx context.Context, itemID uuid.UUID, received int64) error
	// CloseIfFullyReceived marks the order CLOSED once no line has an open quantity.
	CloseIfFullyReceived(ctx context.Context, purchaseOrderID uuid.UUID) (bool, error)
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepo(db *gorm.DB) PurchaseRepo { return &purchaseRepo{db: db} }

func (r *purchaseRepo) Create(ctx context.Context, po *models.PurchaseOrder, items []models.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].PurchaseOrderID = po.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *purchaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &po, err
}

func (r *purchaseRepo) SumOpenQuantityByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	type aggRow struct {
		ProductID    uuid.UUID
		OpenQuantity int64
	}
	var rows []aggRow
	err := r.db.WithContext(ctx).
		Table("purchase_order_items AS i").
		Select("i.product_id AS product_id, COALESCE(SUM(GREATEST(i.quantity - i.received_quantity, 0)), 0) AS open_quantity").
		Joins("JOIN purchase_orders AS po ON po.id = i.purchase_order_id").
		Where("po.status = ? AND i.product_id IN ?", models.PurchaseOrderOpen, productIDs).
		Group("i.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.OpenQuantity > 0 {
			out[row.ProductID] = row.OpenQuantity
		}
	}
	return out, nil
}

func (r *purchaseRepo) GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.PurchaseOrderItem, error) {
	var item models.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *purchaseRepo) UpdateReceived(ctx context.Context, itemID uuid.UUID, received int64) error {
	return r.db.WithContext(ctx).Model(&models.PurchaseOrderItem{}).
		Where("id = ?", itemID).
		Update("received_quantity", received).Error
}

func (r *purchaseRepo) CloseIfFullyReceived(ctx context.Context, purchaseOrderID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE purchase_orders
SET status = @closed
WHERE id = @id
  AND status = @open
  AND NOT EXISTS (
    SELECT 1 FROM purchase_order_items
    WHERE purchase_order_id = @id AND received_quantity < quantity
  )
`, map[string]any{
		"id":     purchaseOrderID,
		"open":   models.PurchaseOrderOpen,
		"closed": models.PurchaseOrderClosed,
	})
	return tx.RowsAffected > 0, tx.Error
}
