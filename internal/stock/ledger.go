package stock

import (
	"context"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
)

type Counters struct {
	OnHand   int64
	Reserved int64
}

func (c Counters) Add(d Counters) Counters {
	return Counters{OnHand: c.OnHand + d.OnHand, Reserved: c.Reserved + d.Reserved}
}

// Source identifies the document behind a movement.
type Source struct {
	Kind        models.SourceKind
	ID          uuid.UUID
	Reference   string
	Description string
}

type Meta struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Kind        models.MovementKind
	Source      Source
	OccurredAt  time.Time
}

// Record is the pure ledger function: after = before + delta for both
// counters, and the row carrying both snapshots.
func Record(before, delta Counters, m Meta) (Counters, models.StockMovement) {
	after := before.Add(delta)
	return after, models.StockMovement{
		ProductID:      m.ProductID,
		WarehouseID:    m.WarehouseID,
		Kind:           m.Kind,
		OnHandDelta:    delta.OnHand,
		OnHandBefore:   before.OnHand,
		OnHandAfter:    after.OnHand,
		ReservedDelta:  delta.Reserved,
		ReservedBefore: before.Reserved,
		ReservedAfter:  after.Reserved,
		SourceKind:     m.Source.Kind,
		SourceID:       m.Source.ID,
		Reference:      m.Source.Reference,
		Description:    m.Source.Description,
		OccurredAt:     m.OccurredAt,
	}
}

type MovementStore interface {
	Append(ctx context.Context, m *models.StockMovement) error
}

type LedgerWriter struct {
	store MovementStore
}

func NewLedgerWriter(store MovementStore) *LedgerWriter {
	return &LedgerWriter{store: store}
}

// Write appends the row describing an applied change.
func (w *LedgerWriter) Write(ctx context.Context, ch Change, m Meta) (models.StockMovement, error) {
	_, row := Record(ch.Before, ch.Applied, m)
	if err := w.store.Append(ctx, &row); err != nil {
		return models.StockMovement{}, err
	}
	return row, nil
}
