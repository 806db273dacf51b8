package service

import (
	"backoffice-service/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	TotalQuantity int64
	SubTotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	TaxableAmount decimal.Decimal
	GrandTotal    decimal.Decimal
}

// LineTotal is quantity x unitPrice at the money column scale.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundPrice(unitPrice).Mul(decimal.NewFromInt(quantity))
}

// ComputeTotals derives the order totals from its lines and discount percent.
// The discount is rounded to cents; GrandTotal is exactly SubTotal - TotalDiscount.
func ComputeTotals(items []models.OrderItem, discountPercent decimal.Decimal) Totals {
	t := Totals{SubTotal: decimal.Zero}
	for _, it := range items {
		t.TotalQuantity += it.Quantity
		t.SubTotal = t.SubTotal.Add(LineTotal(it.Quantity, it.UnitPrice))
	}
	t.TotalDiscount = t.SubTotal.Mul(discountPercent).Div(hundred).Round(2)
	t.GrandTotal = t.SubTotal.Sub(t.TotalDiscount)
	t.TaxableAmount = t.GrandTotal
	return t
}

// WithTotals returns a copy of o carrying the totals of items.
func WithTotals(o models.Order, items []models.OrderItem) models.Order {
	t := ComputeTotals(items, o.DiscountPercent)
	o.TotalQuantity = t.TotalQuantity
	o.SubTotal = t.SubTotal
	o.TotalDiscount = t.TotalDiscount
	o.TaxableAmount = t.TaxableAmount
	o.GrandTotal = t.GrandTotal
	return o
}

// ReceivableAmount is what the customer owes for the order: nothing once canceled.
func ReceivableAmount(o models.Order) decimal.Decimal {
	if o.IsCanceled || o.Status == models.OrderStatusCanceled {
		return decimal.Zero
	}
	return o.GrandTotal
}
