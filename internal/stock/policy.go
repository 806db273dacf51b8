package stock

import "backoffice-service/internal/models"

type Effect int

const (
	EffectNone Effect = iota
	EffectReserve
	EffectConsumeOnHand
)

func (e Effect) String() string {
	switch e {
	case EffectReserve:
		return "reserve"
	case EffectConsumeOnHand:
		return "consume_on_hand"
	default:
		return "none"
	}
}

func ReservesStock(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusPending,
		models.OrderStatusPreOrder,
		models.OrderStatusPackedAndWaitingShipment,
		models.OrderStatusApproved:
		return true
	}
	return false
}

func ConsumesOnHand(s models.OrderStatus) bool {
	return s == models.OrderStatusShipped
}

// EffectOf is total over any status value; unknown statuses have no effect.
func EffectOf(s models.OrderStatus) Effect {
	switch {
	case ConsumesOnHand(s):
		return EffectConsumeOnHand
	case ReservesStock(s):
		return EffectReserve
	}
	return EffectNone
}

// Step is one counter change of a transition, expressed per unit of quantity.
type Step struct {
	Kind         models.MovementKind
	OnHandSign   int64
	ReservedSign int64
}

// Plan returns the ordered steps for from -> to: first the revert of the
// from effect, then the application of the to effect. Any pair of statuses
// is accepted.
func Plan(from, to models.OrderStatus) []Step {
	fromEffect, toEffect := EffectOf(from), EffectOf(to)
	if fromEffect == EffectNone && toEffect == EffectNone {
		return nil
	}

	steps := make([]Step, 0, 2)
	switch fromEffect {
	case EffectConsumeOnHand:
		steps = append(steps, Step{Kind: models.MovementSaleRevert, OnHandSign: 1})
	case EffectReserve:
		steps = append(steps, Step{Kind: models.MovementUnreserve, ReservedSign: -1})
	}
	switch toEffect {
	case EffectConsumeOnHand:
		steps = append(steps, Step{Kind: models.MovementSale, OnHandSign: -1})
	case EffectReserve:
		steps = append(steps, Step{Kind: models.MovementReserve, ReservedSign: 1})
	}
	return steps
}
