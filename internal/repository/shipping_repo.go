package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShippingRepo interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.ShippingInfo, error)
	Upsert(ctx context.Context, s *models.ShippingInfo) error
}

type shippingRepo struct{ db *gorm.DB }

func NewShippingRepo(db *gorm.DB) ShippingRepo { return &shippingRepo{db: db} }

func (r *shippingRepo) Get(ctx context.Context, orderID uuid.UUID) (*models.ShippingInfo, error) {
	var s models.ShippingInfo
	err := r.db.WithContext(ctx).First(&s, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *shippingRepo) Upsert(ctx context.Context, s *models.ShippingInfo) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recipient_name", "phone", "address", "city", "country", "carrier", "tracking_number", "updated_at",
		}),
	}).Create(s).Error
}
