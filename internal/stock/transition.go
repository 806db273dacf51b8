package stock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNoDefaultWarehouse = errors.New("no default warehouse for line without warehouse")
	ErrQuantityOverflow   = errors.New("line quantity out of range")
)

// MaxLineQuantity bounds a single line so that grouped sums and counters
// stay far from int64 overflow.
const MaxLineQuantity int64 = 1_000_000_000

// Line is the stock-relevant projection of an order item.
type Line struct {
	ProductID   uuid.UUID
	WarehouseID *uuid.UUID
	Quantity    int64
}

type Key struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
}

type Group struct {
	Key
	Quantity int64
}

// GroupLines sums lines per (product, effective warehouse) and returns the
// groups sorted by key so that row locks are always taken in the same order.
func GroupLines(lines []Line, defaultWarehouse uuid.UUID) ([]Group, error) {
	sums := make(map[Key]int64, len(lines))
	for _, l := range lines {
		wh := defaultWarehouse
		if l.WarehouseID != nil && *l.WarehouseID != uuid.Nil {
			wh = *l.WarehouseID
		}
		if wh == uuid.Nil {
			return nil, ErrNoDefaultWarehouse
		}
		if l.Quantity < 0 || l.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("product %s: %d: %w", l.ProductID, l.Quantity, ErrQuantityOverflow)
		}
		k := Key{ProductID: l.ProductID, WarehouseID: wh}
		if sums[k] > math.MaxInt64-l.Quantity {
			return nil, fmt.Errorf("product %s: %w", l.ProductID, ErrQuantityOverflow)
		}
		sums[k] += l.Quantity
	}

	groups := make([]Group, 0, len(sums))
	for k, q := range sums {
		groups = append(groups, Group{Key: k, Quantity: q})
	}
	SortGroups(groups)
	return groups, nil
}

func SortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		if c := bytes.Compare(groups[i].ProductID[:], groups[j].ProductID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(groups[i].WarehouseID[:], groups[j].WarehouseID[:]) < 0
	})
}

// Stores are the transactional stores a transition writes through.
type Stores struct {
	Inventory InventoryStore
	Movements MovementStore
}

type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Transition applies the stock effect of moving the given lines from one
// status to another. It must run inside the caller's unit of work: on error
// the caller rolls back every counter and ledger write made here.
func (e *Engine) Transition(ctx context.Context, st Stores, from, to models.OrderStatus, lines []Line, defaultWarehouse uuid.UUID, src Source) ([]models.StockMovement, error) {
	steps := Plan(from, to)
	if len(steps) == 0 {
		return nil, nil
	}

	groups, err := GroupLines(lines, defaultWarehouse)
	if err != nil {
		return nil, err
	}

	accessor := NewAccessor(st.Inventory, e.now)
	ledger := NewLedgerWriter(st.Movements)
	now := e.now()

	rows := make([]models.StockMovement, 0, len(groups)*len(steps))
	for _, g := range groups {
		item, err := accessor.GetOrCreate(ctx, g.ProductID, g.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("inventory %s/%s: %w", g.ProductID, g.WarehouseID, err)
		}
		for _, s := range steps {
			ch, err := accessor.ApplyDelta(ctx, item, s.OnHandSign*g.Quantity, s.ReservedSign*g.Quantity)
			if err != nil {
				return nil, fmt.Errorf("apply %s: %w", s.Kind, err)
			}
			row, err := ledger.Write(ctx, ch, Meta{
				ProductID:   g.ProductID,
				WarehouseID: g.WarehouseID,
				Kind:        s.Kind,
				Source:      src,
				OccurredAt:  now,
			})
			if err != nil {
				return nil, fmt.Errorf("ledger %s: %w", s.Kind, err)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Adjust applies a single counter change outside of an order transition,
// such as a stock count correction or a purchase receipt.
func (e *Engine) Adjust(ctx context.Context, st Stores, key Key, kind models.MovementKind, delta Counters, src Source) (models.StockMovement, error) {
	accessor := NewAccessor(st.Inventory, e.now)
	item, err := accessor.GetOrCreate(ctx, key.ProductID, key.WarehouseID)
	if err != nil {
		return models.StockMovement{}, err
	}
	ch, err := accessor.ApplyDelta(ctx, item, delta.OnHand, delta.Reserved)
	if err != nil {
		return models.StockMovement{}, err
	}
	return NewLedgerWriter(st.Movements).Write(ctx, ch, Meta{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		Kind:        kind,
		Source:      src,
		OccurredAt:  e.now(),
	})
}
