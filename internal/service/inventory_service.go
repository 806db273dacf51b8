package service

import (
	"context"
	"fmt"
	"strings"

	"backoffice-service/internal/models"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inventoryService struct {
	store Store
	log   *zap.Logger
	lc    lifecycle
	opts  Options
}

func NewInventoryService(store Store, log *zap.Logger, opts Options) InventoryService {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &inventoryService{store: store, log: log, lc: newLifecycle(opts), opts: opts}
}

func (s *inventoryService) warehouseOrDefault(ctx context.Context, r Repos, id *uuid.UUID) (uuid.UUID, error) {
	if id != nil && *id != uuid.Nil {
		return *id, nil
	}
	w, err := resolveWarehouse(ctx, r, s.opts.DefaultWarehouseCode)
	if err != nil {
		return uuid.Nil, err
	}
	return w.ID, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, in AdjustStockInput) (*models.StockMovement, error) {
	if in.OnHandDelta == 0 {
		return nil, &ValidationError{Field: "on_hand_delta", Message: "must not be zero"}
	}

	var row models.StockMovement
	err := s.store.WithTx(ctx, func(r Repos) error {
		p, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("product", in.ProductID.String(), ErrProductNotFound)
		}
		wh, err := s.warehouseOrDefault(ctx, r, in.WarehouseID)
		if err != nil {
			return err
		}

		ref := strings.TrimSpace(in.Reference)
		if ref == "" {
			ref = "ADJ-" + s.opts.Now().UTC().Format("20060102")
		}
		row, err = s.lc.engine.Adjust(ctx, r.stockStores(),
			stock.Key{ProductID: p.ID, WarehouseID: wh},
			models.MovementAdjustment,
			stock.Counters{OnHand: in.OnHandDelta},
			stock.Source{
				Kind:        models.SourceManualAdjustment,
				ID:          uuid.New(),
				Reference:   ref,
				Description: strings.TrimSpace(in.Note),
			},
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock adjusted",
		zap.String("product_id", row.ProductID.String()),
		zap.String("warehouse_id", row.WarehouseID.String()),
		zap.Int64("delta", row.OnHandDelta),
		zap.Int64("on_hand", row.OnHandAfter),
	)
	return &row, nil
}

func (s *inventoryService) ReceivePurchase(ctx context.Context, in ReceivePurchaseInput) (*models.StockMovement, error) {
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be a positive integer", Err: ErrQuantityInvalid}
	}

	var row models.StockMovement
	err := s.store.WithTx(ctx, func(r Repos) error {
		item, err := r.Purchases.GetItemForUpdate(ctx, in.PurchaseOrderItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return notFound("purchase order item", in.PurchaseOrderItemID.String(), ErrPurchaseItemNotFound)
		}
		po, err := r.Purchases.GetByID(ctx, item.PurchaseOrderID)
		if err != nil {
			return err
		}
		if po == nil {
			return notFound("purchase order", item.PurchaseOrderID.String(), ErrPurchaseItemNotFound)
		}
		if po.Status != models.PurchaseOrderOpen {
			return fmt.Errorf("%s: %w", po.Number, ErrPurchaseOrderNotOpen)
		}
		if in.Quantity > item.Open() {
			return &ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("%d exceeds open quantity %d", in.Quantity, item.Open()),
				Err:     ErrOverReceipt,
			}
		}

		wh, err := s.warehouseOrDefault(ctx, r, po.WarehouseID)
		if err != nil {
			return err
		}
		row, err = s.lc.engine.Adjust(ctx, r.stockStores(),
			stock.Key{ProductID: item.ProductID, WarehouseID: wh},
			models.MovementPurchaseReceipt,
			stock.Counters{OnHand: in.Quantity},
			stock.Source{
				Kind:        models.SourcePurchaseOrder,
				ID:          po.ID,
				Reference:   po.Number,
				Description: fmt.Sprintf("received %d of %d", item.ReceivedQuantity+in.Quantity, item.Quantity),
			},
		)
		if err != nil {
			return err
		}

		if err := r.Purchases.UpdateReceived(ctx, item.ID, item.ReceivedQuantity+in.Quantity); err != nil {
			return err
		}
		_, err = r.Purchases.CloseIfFullyReceived(ctx, po.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *inventoryService) Availability(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (*AvailabilityView, error) {
	r := s.store.Repos()
	wh, err := s.warehouseOrDefault(ctx, r, warehouseID)
	if err != nil {
		return nil, err
	}

	item, err := r.Inventory.Get(ctx, productID, wh)
	if err != nil {
		return nil, err
	}
	incoming, err := r.Purchases.SumOpenQuantityByProduct(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}

	a := stock.Availability{Incoming: incoming[productID]}
	if item != nil {
		a.OnHand, a.Reserved = item.QuantityOnHand, item.QuantityReserved
	}
	return &AvailabilityView{
		ProductID:        productID,
		WarehouseID:      wh,
		OnHand:           a.OnHand,
		Reserved:         a.Reserved,
		Available:        a.Available(),
		Incoming:         a.Incoming,
		PreorderCapacity: a.PreorderCapacity(),
	}, nil
}

func (s *inventoryService) Movements(ctx context.Context, f MovementFilter) ([]models.StockMovement, int64, error) {
	return s.store.Repos().Movements.List(ctx, f)
}
