package stock

import (
	"context"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
)

// InventoryStore persists inventory counters. GetOrCreate must return the row
// locked for the rest of the surrounding transaction, creating it with zero
// counters when absent, and must tolerate concurrent creation of the same key.
type InventoryStore interface {
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
}

// Change describes one counter mutation. Applied may differ from the
// requested delta when the reserved floor clamps it.
type Change struct {
	Before  Counters
	After   Counters
	Applied Counters
}

// ApplyDelta computes the new counters of item and writes them onto it.
// On-hand takes the delta as is; reserved is floored at zero.
func ApplyDelta(item *models.InventoryItem, onHandDelta, reservedDelta int64, now time.Time) Change {
	before := Counters{OnHand: item.QuantityOnHand, Reserved: item.QuantityReserved}

	reserved := before.Reserved + reservedDelta
	if reserved < 0 {
		reserved = 0
	}
	after := Counters{OnHand: before.OnHand + onHandDelta, Reserved: reserved}

	item.QuantityOnHand = after.OnHand
	item.QuantityReserved = after.Reserved
	item.UpdatedAt = now

	return Change{
		Before: before,
		After:  after,
		Applied: Counters{
			OnHand:   after.OnHand - before.OnHand,
			Reserved: after.Reserved - before.Reserved,
		},
	}
}

// Accessor is the only writer of inventory counters.
type Accessor struct {
	store InventoryStore
	now   func() time.Time
}

func NewAccessor(store InventoryStore, now func() time.Time) *Accessor {
	if now == nil {
		now = time.Now
	}
	return &Accessor{store: store, now: now}
}

func (a *Accessor) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	return a.store.GetOrCreate(ctx, productID, warehouseID)
}

func (a *Accessor) ApplyDelta(ctx context.Context, item *models.InventoryItem, onHandDelta, reservedDelta int64) (Change, error) {
	snapshot := *item
	ch := ApplyDelta(item, onHandDelta, reservedDelta, a.now())
	if err := a.store.Update(ctx, item); err != nil {
		*item = snapshot
		return Change{}, err
	}
	return ch, nil
}
