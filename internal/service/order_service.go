package service

import (
	"context"
	"strings"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderService struct {
	store  Store
	events EventBus
	log    *zap.Logger
	lc     lifecycle
	now    func() time.Time
}

func NewOrderService(store Store, events EventBus, log *zap.Logger, opts Options) OrderService {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &orderService{
		store:  store,
		events: events,
		log:    log,
		lc:     newLifecycle(opts),
		now:    opts.Now,
	}
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderAggregate, error) {
	return s.lc.load(ctx, s.store.Repos(), id, false)
}

func (s *orderService) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	return s.store.Repos().Orders.List(ctx, repository.OrderListFilter{
		CustomerID: f.CustomerID,
		Status:     f.Status,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
}

func (s *orderService) ChangeStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*OrderAggregate, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: string(status), Err: ErrInvalidStatus}
	}

	var (
		agg  *OrderAggregate
		from models.OrderStatus
		rows []models.StockMovement
	)
	err := s.store.WithTx(ctx, func(r Repos) error {
		var err error
		agg, err = s.lc.load(ctx, r, id, true)
		if err != nil {
			return err
		}
		from = agg.Order.Status
		if from.Terminal() && from != status {
			return ErrTerminalStatus
		}

		rows, err = s.lc.transition(ctx, r, agg.Order, agg.Items, from, status, models.SourceOrderStatusTransition)
		if err != nil {
			return err
		}

		agg.Order.Status = status
		agg.Order.IsCanceled = status == models.OrderStatusCanceled
		return s.lc.saveTotals(ctx, r, agg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_number", agg.Order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
		zap.Int("movements", len(rows)),
	)

	if s.events != nil {
		if err := s.events.PublishOrderStatusChanged(ctx, OrderStatusChangedEvent{
			OrderID:     agg.Order.ID,
			OrderNumber: agg.Order.OrderNumber,
			From:        from,
			To:          status,
			Movements:   len(rows),
			ChangedAt:   s.now(),
		}); err != nil {
			s.log.Warn("publish order status changed failed", zap.Error(err))
		}
	}
	return agg, nil
}

func (s *orderService) UpdateLine(ctx context.Context, in UpdateLineInput) (*OrderAggregate, error) {
	code := normalizeSKU(in.ProductCode)
	if code == "" {
		return nil, &ValidationError{Field: "product_code", Message: "is required"}
	}
	if in.Quantity <= 0 || in.Quantity > stock.MaxLineQuantity {
		return nil, &ValidationError{Field: "quantity", Message: "must be a positive integer", Err: ErrQuantityInvalid}
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, &ValidationError{Field: "price", Message: in.Price.String(), Err: ErrPriceInvalid}
		}
		p := RoundPrice(*in.Price)
		in.Price = &p
	}

	var agg *OrderAggregate
	err := s.store.WithTx(ctx, func(r Repos) error {
		var err error
		agg, err = s.lc.load(ctx, r, in.OrderID, true)
		if err != nil {
			return err
		}
		now := s.now()

		if idx := findLine(agg.Items, code); idx >= 0 {
			it := &agg.Items[idx]
			it.Quantity = in.Quantity
			if in.Price != nil {
				it.UnitPrice = *in.Price
			}
			if in.Notes != nil {
				it.Notes = *in.Notes
			}
			it.LineTotal = LineTotal(it.Quantity, it.UnitPrice)
			it.UpdatedAt = now
			if err := r.OrderItems.Update(ctx, it); err != nil {
				return err
			}
			return s.lc.saveTotals(ctx, r, agg)
		}

		p, err := r.Products.FindBySKU(ctx, code)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("product", code, ErrProductNotFound)
		}

		price := decimal.Zero
		if in.Price != nil {
			price = *in.Price
		} else {
			prices, err := r.Products.ActivePrices(ctx, []uuid.UUID{p.ID}, now)
			if err != nil {
				return err
			}
			if ap, ok := activePrice(prices, p.ID, now); ok {
				price = RoundPrice(ap.Price)
			}
		}

		item := models.OrderItem{
			OrderID:     agg.Order.ID,
			LineNo:      nextLineNo(agg.Items),
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
			Quantity:    in.Quantity,
			UnitPrice:   price,
			LineTotal:   LineTotal(in.Quantity, price),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.Notes != nil {
			item.Notes = *in.Notes
		}
		if err := r.OrderItems.Create(ctx, &item); err != nil {
			return err
		}
		agg.Items = append(agg.Items, item)
		return s.lc.saveTotals(ctx, r, agg)
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func (s *orderService) RemoveLine(ctx context.Context, id uuid.UUID, productCode string) (bool, error) {
	code := normalizeSKU(productCode)
	removed := false
	err := s.store.WithTx(ctx, func(r Repos) error {
		agg, err := s.lc.load(ctx, r, id, true)
		if err != nil {
			return err
		}
		idx := findLine(agg.Items, code)
		if idx < 0 {
			return nil
		}
		if _, err := r.OrderItems.Delete(ctx, agg.Items[idx].ID); err != nil {
			return err
		}
		agg.Items = append(agg.Items[:idx], agg.Items[idx+1:]...)
		removed = true
		return s.lc.saveTotals(ctx, r, agg)
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Debug("order line removed without stock reversal", zap.String("order_id", id.String()), zap.String("sku", code))
	}
	return removed, nil
}

func (s *orderService) SetDiscount(ctx context.Context, id uuid.UUID, percent decimal.Decimal) (*OrderAggregate, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return nil, &ValidationError{Field: "discount_percent", Message: percent.String(), Err: ErrDiscountInvalid}
	}

	var agg *OrderAggregate
	err := s.store.WithTx(ctx, func(r Repos) error {
		var err error
		agg, err = s.lc.load(ctx, r, id, true)
		if err != nil {
			return err
		}
		agg.Order.DiscountPercent = percent.Round(models.MoneyScale)
		return s.lc.saveTotals(ctx, r, agg)
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func (s *orderService) SetShipping(ctx context.Context, id uuid.UUID, in ShippingInput) (*OrderAggregate, error) {
	var agg *OrderAggregate
	err := s.store.WithTx(ctx, func(r Repos) error {
		var err error
		agg, err = s.lc.load(ctx, r, id, true)
		if err != nil {
			return err
		}
		info := &models.ShippingInfo{
			OrderID:        id,
			RecipientName:  strings.TrimSpace(in.RecipientName),
			Phone:          strings.TrimSpace(in.Phone),
			Address:        strings.TrimSpace(in.Address),
			City:           strings.TrimSpace(in.City),
			Country:        strings.TrimSpace(in.Country),
			Carrier:        strings.TrimSpace(in.Carrier),
			TrackingNumber: strings.TrimSpace(in.TrackingNumber),
			UpdatedAt:      s.now(),
		}
		if err := r.Shipping.Upsert(ctx, info); err != nil {
			return err
		}
		agg.Shipping = info
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// findLine returns the index of the first line whose SKU matches code, or -1.
func findLine(items []models.OrderItem, code string) int {
	if code == "" {
		return -1
	}
	for i, it := range items {
		if normalizeSKU(it.ProductSKU) == code {
			return i
		}
	}
	return -1
}

func nextLineNo(items []models.OrderItem) int {
	n := 0
	for _, it := range items {
		if it.LineNo > n {
			n = it.LineNo
		}
	}
	return n + 1
}
