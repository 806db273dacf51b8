package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	CreatePrice(ctx context.Context, p *models.ProductPrice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	// FindBySKUs returns every product whose SKU matches one of skus
	// case-insensitively. Unknown SKUs are simply absent from the result.
	FindBySKUs(ctx context.Context, skus []string) ([]models.Product, error)
	// ActivePrices returns the prices of the given products active at the
	// instant, newest ValidFrom first.
	ActivePrices(ctx context.Context, productIDs []uuid.UUID, at time.Time) ([]models.ProductPrice, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) CreatePrice(ctx context.Context, p *models.ProductPrice) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where("lower(sku) = lower(?)", strings.TrimSpace(sku)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *productRepo) FindBySKUs(ctx context.Context, skus []string) ([]models.Product, error) {
	if len(skus) == 0 {
		return []models.Product{}, nil
	}

	lowered := make([]string, 0, len(skus))
	for _, s := range skus {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}

	var list []models.Product
	err := r.db.WithContext(ctx).Where("lower(sku) IN ?", lowered).Find(&list).Error
	return list, err
}

func (r *productRepo) ActivePrices(ctx context.Context, productIDs []uuid.UUID, at time.Time) ([]models.ProductPrice, error) {
	if len(productIDs) == 0 {
		return []models.ProductPrice{}, nil
	}

	var list []models.ProductPrice
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Where("is_active AND valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)", at, at).
		Order("valid_from DESC").
		Find(&list).Error
	return list, err
}
