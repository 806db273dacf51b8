package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"backoffice-service/internal/models"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errImportRejected rolls back the import transaction; the report carries the reasons.
var errImportRejected = errors.New("import rejected")

type importService struct {
	store  Store
	lock   ImportLock
	events EventBus
	log    *zap.Logger
	lc     lifecycle
	opts   Options
}

func NewImportService(store Store, lock ImportLock, events EventBus, log *zap.Logger, opts Options) ImportService {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &importService{
		store:  store,
		lock:   lock,
		events: events,
		log:    log,
		lc:     newLifecycle(opts),
		opts:   opts,
	}
}

func (s *importService) ImportOrders(ctx context.Context, in ImportInput) (*ImportReport, error) {
	status, ok := in.OrderType.Status()
	if !ok {
		return nil, &ValidationError{Field: "order_type", Message: string(in.OrderType), Err: ErrInvalidOrderType}
	}

	if s.lock != nil {
		release, err := s.acquire(ctx, in)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	report := &ImportReport{TotalRows: len(in.Rows), Errors: []RowError{}}
	parsed := parseRows(in.Rows, report)

	var (
		created *OrderAggregate
		moves   []models.StockMovement
	)
	err := s.store.WithTx(ctx, func(r Repos) error {
		customer, err := r.Customers.FindByCode(ctx, in.CustomerCode)
		if err != nil {
			return err
		}
		if customer == nil {
			return notFound("customer", strings.TrimSpace(in.CustomerCode), ErrCustomerNotFound)
		}

		if len(parsed) == 0 {
			report.add(0, noValidLines())
			report.reject()
			return errImportRejected
		}

		warehouse, err := resolveWarehouse(ctx, r, s.opts.DefaultWarehouseCode)
		if err != nil {
			return err
		}
		currency, err := resolveCurrency(ctx, r, s.opts.BaseCurrencyCode)
		if err != nil {
			return err
		}

		lines, err := matchProducts(ctx, r, parsed, report)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			report.add(0, noValidLines())
			report.reject()
			return errImportRejected
		}

		if err := preflight(ctx, r, in.OrderType.Mode(), lines, warehouse.ID, report); err != nil {
			return err
		}
		if report.Rejected {
			return errImportRejected
		}

		created, moves, err = s.createOrder(ctx, r, customer.ID, currency.ID, warehouse.ID, status, lines, in.Notes)
		if err != nil {
			return err
		}
		report.SuccessCount = len(lines)
		report.OrderID = &created.Order.ID
		report.OrderNumber = created.Order.OrderNumber
		return nil
	})
	if errors.Is(err, errImportRejected) {
		s.log.Info("import rejected",
			zap.String("customer", in.CustomerCode),
			zap.Int("rows", report.TotalRows),
			zap.Int("errors", report.ErrorCount),
		)
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("orders imported",
		zap.String("order_number", created.Order.OrderNumber),
		zap.String("status", string(created.Order.Status)),
		zap.Int("rows", report.TotalRows),
		zap.Int("lines", report.SuccessCount),
		zap.Int("errors", report.ErrorCount),
		zap.Int("movements", len(moves)),
	)

	if s.events != nil {
		if err := s.events.PublishOrderImported(ctx, OrderImportedEvent{
			OrderID:     created.Order.ID,
			OrderNumber: created.Order.OrderNumber,
			CustomerID:  created.Order.CustomerID,
			Status:      created.Order.Status,
			Lines:       len(created.Items),
			GrandTotal:  created.Order.GrandTotal.StringFixed(2),
			ImportedAt:  created.Order.OrderedAt,
		}); err != nil {
			s.log.Warn("publish order imported failed", zap.Error(err))
		}
	}
	return report, nil
}

func (s *importService) acquire(ctx context.Context, in ImportInput) (func(), error) {
	key := ImportFingerprint(in)
	token, ok, err := s.lock.TryLock(ctx, key, s.opts.ImportLockTTL)
	if err != nil {
		// The database still serializes conflicting writes; the lock only
		// spares a duplicate import.
		s.log.Warn("import lock unavailable, continuing without it", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrImportInProgress
	}
	return func() {
		if err := s.lock.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("import unlock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// ImportFingerprint identifies an import by customer, type and row content.
func ImportFingerprint(in ImportInput) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", normalizeSKU(in.CustomerCode), in.OrderType)
	for _, row := range in.Rows {
		fmt.Fprintf(h, "|%s;%s;%s;%s",
			normalizeSKU(row.ProductCode),
			strings.TrimSpace(row.Quantity),
			strings.TrimSpace(row.Price),
			strings.TrimSpace(row.Season),
		)
	}
	return "import:" + hex.EncodeToString(h.Sum(nil))
}

func noValidLines() error {
	return &ValidationError{Field: "rows", Message: "no valid lines", Err: ErrNoValidLines}
}

type parsedRow struct {
	row      int
	code     string
	quantity int64
	price    decimal.Decimal
	priced   bool
	season   string
}

func parseRows(rows []ImportRow, report *ImportReport) []parsedRow {
	out := make([]parsedRow, 0, len(rows))
	for i, raw := range rows {
		rowNo := raw.Row
		if rowNo <= 0 {
			rowNo = i + 1
		}

		code := normalizeSKU(raw.ProductCode)
		if code == "" {
			report.add(rowNo, &ValidationError{Row: rowNo, Field: "product_code", Message: "is required"})
			continue
		}
		qty, ok := ParseQuantity(raw.Quantity)
		if !ok {
			report.add(rowNo, &ValidationError{
				Row:     rowNo,
				Field:   "quantity",
				Message: fmt.Sprintf("%q is not a positive integer up to %d", strings.TrimSpace(raw.Quantity), stock.MaxLineQuantity),
				Err:     ErrQuantityInvalid,
			})
			continue
		}
		price, priced := ParsePrice(raw.Price)
		out = append(out, parsedRow{
			row:      rowNo,
			code:     code,
			quantity: qty,
			price:    price,
			priced:   priced,
			season:   strings.TrimSpace(raw.Season),
		})
	}
	return out
}

// matchProducts resolves the rows' SKUs in one query. Unknown SKUs become
// row errors; the remaining rows keep their order.
func matchProducts(ctx context.Context, r Repos, rows []parsedRow, report *ImportReport) ([]importLine, error) {
	codes := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.code]; !ok {
			seen[row.code] = struct{}{}
			codes = append(codes, row.code)
		}
	}

	products, err := r.Products.FindBySKUs(ctx, codes)
	if err != nil {
		return nil, err
	}
	bySKU := make(map[string]models.Product, len(products))
	for _, p := range products {
		bySKU[normalizeSKU(p.SKU)] = p
	}

	lines := make([]importLine, 0, len(rows))
	for _, row := range rows {
		p, ok := bySKU[row.code]
		if !ok {
			report.add(row.row, notFound("product", row.code, ErrProductNotFound))
			continue
		}
		lines = append(lines, importLine{
			row:      row.row,
			product:  p,
			quantity: row.quantity,
			price:    row.price,
			priced:   row.priced,
			season:   row.season,
		})
	}
	return lines, nil
}

// preflight locks the inventory rows of every product group in key order and
// checks the grouped quantity against the capacity for mode. Every failing
// group is reported; any failure rejects the import.
func preflight(ctx context.Context, r Repos, mode stock.Mode, lines []importLine, warehouseID uuid.UUID, report *ImportReport) error {
	sl := make([]stock.Line, 0, len(lines))
	firstRow := make(map[uuid.UUID]importLine, len(lines))
	for _, l := range lines {
		sl = append(sl, stock.Line{ProductID: l.product.ID, Quantity: l.quantity})
		if _, ok := firstRow[l.product.ID]; !ok {
			firstRow[l.product.ID] = l
		}
	}
	groups, err := stock.GroupLines(sl, warehouseID)
	if err != nil {
		return err
	}

	incoming := map[uuid.UUID]int64{}
	if mode == stock.ModePreorder {
		ids := make([]uuid.UUID, 0, len(groups))
		for _, g := range groups {
			ids = append(ids, g.ProductID)
		}
		if incoming, err = r.Purchases.SumOpenQuantityByProduct(ctx, ids); err != nil {
			return err
		}
	}

	failed := false
	for _, g := range groups {
		item, err := r.Inventory.GetOrCreate(ctx, g.ProductID, g.WarehouseID)
		if err != nil {
			return err
		}
		a := stock.Availability{OnHand: item.QuantityOnHand, Reserved: item.QuantityReserved, Incoming: incoming[g.ProductID]}
		if limit, ok := a.Allows(mode, g.Quantity); !ok {
			first := firstRow[g.ProductID]
			report.add(first.row, &InsufficientStockError{
				ProductID:   g.ProductID,
				WarehouseID: g.WarehouseID,
				SKU:         first.product.SKU,
				Mode:        mode,
				Requested:   g.Quantity,
				Limit:       limit,
			})
			failed = true
		}
	}
	if failed {
		report.reject()
	}
	return nil
}

func (s *importService) createOrder(ctx context.Context, r Repos, customerID, currencyID, warehouseID uuid.UUID, status models.OrderStatus, lines []importLine, notes string) (*OrderAggregate, []models.StockMovement, error) {
	now := s.opts.Now()

	var unpriced []uuid.UUID
	for _, l := range lines {
		if !l.priced {
			unpriced = append(unpriced, l.product.ID)
		}
	}
	var prices []models.ProductPrice
	if len(unpriced) > 0 {
		var err error
		if prices, err = r.Products.ActivePrices(ctx, unpriced, now); err != nil {
			return nil, nil, err
		}
	}

	o := models.Order{
		CustomerID:      customerID,
		OrderNumber:     newOrderNumber(now),
		OrderedAt:       now,
		Status:          status,
		CurrencyID:      currencyID,
		Notes:           strings.TrimSpace(notes),
		DiscountPercent: decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]models.OrderItem, 0, len(lines))
	for i, l := range lines {
		if o.Season == "" {
			o.Season = l.season
		}
		price := l.price
		if !l.priced {
			price = decimal.Zero
			if ap, ok := activePrice(prices, l.product.ID, now); ok {
				price = RoundPrice(ap.Price)
			}
		}
		wh := warehouseID
		items = append(items, models.OrderItem{
			LineNo:      i + 1,
			ProductID:   l.product.ID,
			ProductName: l.product.Name,
			ProductSKU:  l.product.SKU,
			Quantity:    l.quantity,
			UnitPrice:   price,
			LineTotal:   LineTotal(l.quantity, price),
			WarehouseID: &wh,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	o = WithTotals(o, items)

	if err := r.Orders.Create(ctx, &o); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	if err := r.OrderItems.BulkCreate(ctx, items); err != nil {
		return nil, nil, fmt.Errorf("create order items: %w", err)
	}

	moves, err := s.lc.transition(ctx, r, o, items, models.OrderStatusDraft, status, models.SourceImportedSalesOrder)
	if err != nil {
		return nil, nil, err
	}
	if err := s.lc.mirrorReceivable(ctx, r, o); err != nil {
		return nil, nil, err
	}
	return &OrderAggregate{Order: o, Items: items}, moves, nil
}
