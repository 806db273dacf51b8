package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
)

// lifecycle holds the order mutations shared by the import and order
// services. Every method runs inside the caller's transaction.
type lifecycle struct {
	engine *stock.Engine
	opts   Options
}

func newLifecycle(opts Options) lifecycle {
	return lifecycle{engine: stock.NewEngine(opts.Now), opts: opts}
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("SO-%s-%s", now.UTC().Format("20060102"), suffix)
}

func normalizeSKU(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (l lifecycle) load(ctx context.Context, r Repos, id uuid.UUID, forUpdate bool) (*OrderAggregate, error) {
	var (
		o   *models.Order
		err error
	)
	if forUpdate {
		o, err = r.Orders.GetForUpdate(ctx, id)
	} else {
		o, err = r.Orders.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, notFound("order", id.String(), ErrOrderNotFound)
	}

	items, err := r.OrderItems.GetByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	shipping, err := r.Shipping.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderAggregate{Order: *o, Items: items, Shipping: shipping}, nil
}

func stockLines(items []models.OrderItem) []stock.Line {
	lines := make([]stock.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, stock.Line{ProductID: it.ProductID, WarehouseID: it.WarehouseID, Quantity: it.Quantity})
	}
	return lines
}

func needsDefaultWarehouse(items []models.OrderItem) bool {
	for _, it := range items {
		if it.WarehouseID == nil || *it.WarehouseID == uuid.Nil {
			return true
		}
	}
	return false
}

// transition applies the stock effect of from -> to for the order's lines.
// The default warehouse is resolved once, and only if some line needs it.
func (l lifecycle) transition(ctx context.Context, r Repos, o models.Order, items []models.OrderItem, from, to models.OrderStatus, kind models.SourceKind) ([]models.StockMovement, error) {
	if len(stock.Plan(from, to)) == 0 || len(items) == 0 {
		return nil, nil
	}

	var defaultWarehouse uuid.UUID
	if needsDefaultWarehouse(items) {
		w, err := resolveWarehouse(ctx, r, l.opts.DefaultWarehouseCode)
		if err != nil {
			return nil, err
		}
		defaultWarehouse = w.ID
	}

	return l.engine.Transition(ctx, r.stockStores(), from, to, stockLines(items), defaultWarehouse, stock.Source{
		Kind:        kind,
		ID:          o.ID,
		Reference:   o.OrderNumber,
		Description: fmt.Sprintf("%s -> %s", from, to),
	})
}

// saveTotals recomputes the header totals from the current lines, writes the
// header and mirrors the receivable.
func (l lifecycle) saveTotals(ctx context.Context, r Repos, agg *OrderAggregate) error {
	agg.Order = WithTotals(agg.Order, agg.Items)
	agg.Order.UpdatedAt = l.opts.Now()
	if err := r.Orders.Update(ctx, &agg.Order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return l.mirrorReceivable(ctx, r, agg.Order)
}

func (l lifecycle) mirrorReceivable(ctx context.Context, r Repos, o models.Order) error {
	now := l.opts.Now()
	err := r.Receivables.UpsertReceivable(ctx, &models.CustomerTransaction{
		CustomerID:      o.CustomerID,
		OrderNumber:     o.OrderNumber,
		Amount:          ReceivableAmount(o),
		TransactionDate: o.OrderedAt,
		Description:     "Sales order " + o.OrderNumber,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("upsert receivable: %w", err)
	}
	return nil
}

// activePrice picks the active price with the latest ValidFrom, or zero.
func activePrice(prices []models.ProductPrice, productID uuid.UUID, at time.Time) (models.ProductPrice, bool) {
	var (
		best  models.ProductPrice
		found bool
	)
	for _, p := range prices {
		if p.ProductID != productID || !p.ActiveAt(at) {
			continue
		}
		if !found || p.ValidFrom.After(best.ValidFrom) {
			best, found = p, true
		}
	}
	return best, found
}
