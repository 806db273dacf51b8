package service

import (
	"context"
	"sort"
	"strings"

	"backoffice-service/internal/models"
)

// PickWarehouse resolves the default warehouse among the active ones, in order:
//  1. the warehouse whose code equals configCode (case-insensitive);
//  2. the warehouse flagged IsDefault;
//  3. the first active warehouse by code.
//
// ok is false when no active warehouse exists.
func PickWarehouse(configCode string, all []models.Warehouse) (models.Warehouse, bool) {
	active := make([]models.Warehouse, 0, len(all))
	for _, w := range all {
		if w.IsActive {
			active = append(active, w)
		}
	}
	if len(active) == 0 {
		return models.Warehouse{}, false
	}
	sort.SliceStable(active, func(i, j int) bool {
		return strings.ToLower(active[i].Code) < strings.ToLower(active[j].Code)
	})

	if code := strings.TrimSpace(configCode); code != "" {
		for _, w := range active {
			if strings.EqualFold(w.Code, code) {
				return w, true
			}
		}
	}
	for _, w := range active {
		if w.IsDefault {
			return w, true
		}
	}
	return active[0], true
}

// PickCurrency follows the same precedence as PickWarehouse with IsBase as the flag.
func PickCurrency(configCode string, all []models.Currency) (models.Currency, bool) {
	active := make([]models.Currency, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return models.Currency{}, false
	}
	sort.SliceStable(active, func(i, j int) bool {
		return strings.ToUpper(active[i].Code) < strings.ToUpper(active[j].Code)
	})

	if code := strings.TrimSpace(configCode); code != "" {
		for _, c := range active {
			if strings.EqualFold(c.Code, code) {
				return c, true
			}
		}
	}
	for _, c := range active {
		if c.IsBase {
			return c, true
		}
	}
	return active[0], true
}

func resolveWarehouse(ctx context.Context, r Repos, configCode string) (models.Warehouse, error) {
	list, err := r.Warehouses.ListActive(ctx)
	if err != nil {
		return models.Warehouse{}, err
	}
	w, ok := PickWarehouse(configCode, list)
	if !ok {
		return models.Warehouse{}, notFound("warehouse", "", ErrNoWarehouseConfigured)
	}
	return w, nil
}

func resolveCurrency(ctx context.Context, r Repos, configCode string) (models.Currency, error) {
	list, err := r.Currencies.ListActive(ctx)
	if err != nil {
		return models.Currency{}, err
	}
	c, ok := PickCurrency(configCode, list)
	if !ok {
		return models.Currency{}, notFound("currency", "", ErrNoCurrencyConfigured)
	}
	return c, nil
}
