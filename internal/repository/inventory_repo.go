package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepo interface {
	// GetOrCreate inserts a zero row for the key if none exists, then reads it
	// with SELECT ... FOR UPDATE. Concurrent creators of the same key do not
	// fail: the loser's insert is a no-op and it waits on the row lock.
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Get(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryItem, error)
	// ListPage walks all rows ordered by id, for the ledger auditor.
	ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]models.InventoryItem, error)
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepo(db *gorm.DB) InventoryRepo { return &inventoryRepo{db: db} }

func (r *inventoryRepo) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
		DoNothing: true,
	}).Create(&models.InventoryItem{ProductID: productID, WarehouseID: warehouseID}).Error
	if err != nil {
		return nil, err
	}

	var item models.InventoryItem
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepo) Update(ctx context.Context, item *models.InventoryItem) error {
	tx := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(map[string]any{
		"quantity_on_hand":  item.QuantityOnHand,
		"quantity_reserved": item.QuantityReserved,
		"updated_at":        item.UpdatedAt,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inventoryRepo) Get(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *inventoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryItem, error) {
	var list []models.InventoryItem
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("warehouse_id ASC").Find(&list).Error
	return list, err
}

func (r *inventoryRepo) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]models.InventoryItem, error) {
	if limit <= 0 {
		limit = 500
	}
	var list []models.InventoryItem
	err := r.db.WithContext(ctx).Where("id > ?", afterID).Order("id ASC").Limit(limit).Find(&list).Error
	return list, err
}
