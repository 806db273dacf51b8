package repository

import (
	"context"
	"errors"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementListFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	SourceKind  *models.SourceKind
	SourceID    *uuid.UUID
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

type StockMovementRepo interface {
	// Append inserts a ledger row; Seq is assigned by the database.
	Append(ctx context.Context, m *models.StockMovement) error
	// List returns rows in write order (Seq ascending).
	List(ctx context.Context, f MovementListFilter) ([]models.StockMovement, int64, error)
	Latest(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockMovement, error)
	// Inconsistent returns rows violating after = before + delta or the
	// reserved floor. Only reachable if the CHECK constraints were bypassed.
	Inconsistent(ctx context.Context, limit int) ([]models.StockMovement, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepo(db *gorm.DB) StockMovementRepo { return &stockMovementRepo{db: db} }

func (r *stockMovementRepo) Append(ctx context.Context, m *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, f MovementListFilter) ([]models.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.StockMovement{})

	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.SourceKind != nil {
		q = q.Where("source_kind = ?", *f.SourceKind)
	}
	if f.SourceID != nil {
		q = q.Where("source_id = ?", *f.SourceID)
	}
	if f.From != nil {
		q = q.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurred_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}

	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.StockMovement
	err := q.Order("seq ASC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func (r *stockMovementRepo) Latest(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockMovement, error) {
	var m models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Order("seq DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *stockMovementRepo) Inconsistent(ctx context.Context, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []models.StockMovement
	err := r.db.WithContext(ctx).
		Where(`on_hand_after <> on_hand_before + on_hand_delta
		    OR reserved_after <> reserved_before + reserved_delta
		    OR reserved_after < 0`).
		Order("seq ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
