package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReceivableRepo interface {
	// UpsertReceivable keeps exactly one row per (customer, order number):
	// the first call inserts, later calls overwrite amount, date and description.
	UpsertReceivable(ctx context.Context, t *models.CustomerTransaction) error
	Get(ctx context.Context, customerID uuid.UUID, orderNumber string) (*models.CustomerTransaction, error)
}

type receivableRepo struct{ db *gorm.DB }

func NewReceivableRepo(db *gorm.DB) ReceivableRepo { return &receivableRepo{db: db} }

func (r *receivableRepo) UpsertReceivable(ctx context.Context, t *models.CustomerTransaction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "order_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "transaction_date", "description", "updated_at"}),
	}).Create(t).Error
}

func (r *receivableRepo) Get(ctx context.Context, customerID uuid.UUID, orderNumber string) (*models.CustomerTransaction, error) {
	var t models.CustomerTransaction
	err := r.db.WithContext(ctx).First(&t, "customer_id = ? AND order_number = ?", customerID, orderNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}
