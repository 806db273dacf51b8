package repository

import (
	"context"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderItemRepo interface {
	BulkCreate(ctx context.Context, items []models.OrderItem) error
	Create(ctx context.Context, item *models.OrderItem) error
	Update(ctx context.Context, item *models.OrderItem) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// GetByOrderID returns the lines ordered by LineNo.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

type orderItemRepo struct{ db *gorm.DB }

func NewOrderItemRepo(db *gorm.DB) OrderItemRepo { return &orderItemRepo{db: db} }

func (r *orderItemRepo) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *orderItemRepo) Create(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *orderItemRepo) Update(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]any{
		"quantity":   item.Quantity,
		"unit_price": item.UnitPrice,
		"line_total": item.LineTotal,
		"notes":      item.Notes,
		"updated_at": item.UpdatedAt,
	}).Error
}

func (r *orderItemRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.OrderItem{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderItemRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("line_no ASC").Find(&rows).Error
	return rows, err
}
