package repository

import (
	"context"

	"backoffice-service/internal/models"

	"gorm.io/gorm"
)

type WarehouseRepo interface {
	Create(ctx context.Context, w *models.Warehouse) error
	ListActive(ctx context.Context) ([]models.Warehouse, error)
}

type warehouseRepo struct{ db *gorm.DB }

func NewWarehouseRepo(db *gorm.DB) WarehouseRepo { return &warehouseRepo{db: db} }

func (r *warehouseRepo) Create(ctx context.Context, w *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *warehouseRepo) ListActive(ctx context.Context) ([]models.Warehouse, error) {
	var list []models.Warehouse
	err := r.db.WithContext(ctx).Where("is_active").Order("code ASC").Find(&list).Error
	return list, err
}

type CurrencyRepo interface {
	Create(ctx context.Context, c *models.Currency) error
	ListActive(ctx context.Context) ([]models.Currency, error)
}

type currencyRepo struct{ db *gorm.DB }

func NewCurrencyRepo(db *gorm.DB) CurrencyRepo { return &currencyRepo{db: db} }

func (r *currencyRepo) Create(ctx context.Context, c *models.Currency) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *currencyRepo) ListActive(ctx context.Context) ([]models.Currency, error) {
	var list []models.Currency
	err := r.db.WithContext(ctx).Where("is_active").Order("code ASC").Find(&list).Error
	return list, err
}
