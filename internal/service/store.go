package service

import (
	"context"

	"backoffice-service/internal/repository"
)

type gormStore struct {
	repo *repository.Repository
}

// NewStore adapts the gorm repository set to Store.
func NewStore(repo *repository.Repository) Store {
	return &gormStore{repo: repo}
}

func reposOf(r *repository.Repository) Repos {
	return Repos{
		Customers:   r.Customers,
		Products:    r.Products,
		Warehouses:  r.Warehouses,
		Currencies:  r.Currencies,
		Orders:      r.Orders,
		OrderItems:  r.OrderItems,
		Shipping:    r.Shipping,
		Inventory:   r.Inventory,
		Movements:   r.Movements,
		Purchases:   r.Purchases,
		Receivables: r.Receivables,
	}
}

func (s *gormStore) Repos() Repos { return reposOf(s.repo) }

func (s *gormStore) WithTx(ctx context.Context, fn func(r Repos) error) error {
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		return fn(reposOf(tx))
	})
	return classifyStorageError(err)
}
