package audit

import (
	"context"
	"fmt"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryPager interface {
	ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]models.InventoryItem, error)
}

type MovementReader interface {
	Latest(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockMovement, error)
	Inconsistent(ctx context.Context, limit int) ([]models.StockMovement, error)
}

type FindingKind string

const (
	// FindingLedgerArithmetic: a movement whose after != before + delta.
	FindingLedgerArithmetic FindingKind = "ledger_arithmetic"
	FindingNegativeReserved FindingKind = "negative_reserved"
	// FindingDrift: the counters differ from the after snapshot of the
	// latest movement for the key, or are non-zero with no movement at all.
	FindingDrift FindingKind = "drift"
)

type Finding struct {
	Kind        FindingKind
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	MovementID  *uuid.UUID
	Detail      string
}

type Report struct {
	StartedAt    time.Time
	Duration     time.Duration
	ItemsChecked int
	Findings     []Finding
}

// Auditor checks the stock ledger against the inventory counters. It only
// reads; findings are logged for an operator.
type Auditor struct {
	inventory InventoryPager
	movements MovementReader
	log       *zap.Logger
	pageSize  int
	limit     int
}

func NewAuditor(inventory InventoryPager, movements MovementReader, log *zap.Logger) *Auditor {
	return &Auditor{
		inventory: inventory,
		movements: movements,
		log:       log,
		pageSize:  500,
		limit:     100,
	}
}

func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	rep := &Report{StartedAt: time.Now()}

	bad, err := a.movements.Inconsistent(ctx, a.limit)
	if err != nil {
		return nil, err
	}
	for _, m := range bad {
		id := m.ID
		kind := FindingLedgerArithmetic
		if m.ReservedAfter < 0 && m.ReservedAfter == m.ReservedBefore+m.ReservedDelta && m.OnHandAfter == m.OnHandBefore+m.OnHandDelta {
			kind = FindingNegativeReserved
		}
		rep.Findings = append(rep.Findings, Finding{
			Kind:        kind,
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			MovementID:  &id,
			Detail:      fmt.Sprintf("movement seq %d", m.Seq),
		})
	}

	after := uuid.Nil
	for {
		page, err := a.inventory.ListPage(ctx, after, a.pageSize)
		if err != nil {
			return nil, err
		}
		for _, it := range page {
			rep.ItemsChecked++
			f, err := a.checkItem(ctx, it)
			if err != nil {
				return nil, err
			}
			rep.Findings = append(rep.Findings, f...)
		}
		if len(page) < a.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	rep.Duration = time.Since(rep.StartedAt)
	a.logReport(rep)
	return rep, nil
}

func (a *Auditor) checkItem(ctx context.Context, it models.InventoryItem) ([]Finding, error) {
	var out []Finding
	if it.QuantityReserved < 0 {
		out = append(out, Finding{
			Kind:        FindingNegativeReserved,
			ProductID:   it.ProductID,
			WarehouseID: it.WarehouseID,
			Detail:      fmt.Sprintf("reserved %d", it.QuantityReserved),
		})
	}

	last, err := a.movements.Latest(ctx, it.ProductID, it.WarehouseID)
	if err != nil {
		return nil, err
	}
	switch {
	case last == nil && (it.QuantityOnHand != 0 || it.QuantityReserved != 0):
		out = append(out, Finding{
			Kind:        FindingDrift,
			ProductID:   it.ProductID,
			WarehouseID: it.WarehouseID,
			Detail:      "counters set without any movement",
		})
	case last != nil && (last.OnHandAfter != it.QuantityOnHand || last.ReservedAfter != it.QuantityReserved):
		id := last.ID
		out = append(out, Finding{
			Kind:        FindingDrift,
			ProductID:   it.ProductID,
			WarehouseID: it.WarehouseID,
			MovementID:  &id,
			Detail: fmt.Sprintf("on_hand %d vs ledger %d, reserved %d vs ledger %d",
				it.QuantityOnHand, last.OnHandAfter, it.QuantityReserved, last.ReservedAfter),
		})
	}
	return out, nil
}

func (a *Auditor) logReport(rep *Report) {
	if len(rep.Findings) == 0 {
		a.log.Info("stock ledger audit passed",
			zap.Int("items", rep.ItemsChecked),
			zap.Duration("took", rep.Duration),
		)
		return
	}
	for _, f := range rep.Findings {
		fields := []zap.Field{
			zap.String("kind", string(f.Kind)),
			zap.String("product_id", f.ProductID.String()),
			zap.String("warehouse_id", f.WarehouseID.String()),
			zap.String("detail", f.Detail),
		}
		if f.MovementID != nil {
			fields = append(fields, zap.String("movement_id", f.MovementID.String()))
		}
		a.log.Error("stock ledger audit finding", fields...)
	}
	a.log.Warn("stock ledger audit finished with findings",
		zap.Int("items", rep.ItemsChecked),
		zap.Int("findings", len(rep.Findings)),
		zap.Duration("took", rep.Duration),
	)
}
