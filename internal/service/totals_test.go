package service_test

import (
	"testing"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 3, UnitPrice: dec("19.99")},
		{Quantity: 1, UnitPrice: dec("0.05")},
	}

	got := service.ComputeTotals(items, dec("12.5"))
	require.Equal(t, int64(4), got.TotalQuantity)
	require.True(t, got.SubTotal.Equal(dec("60.02")))
	// 60.02 * 12.5% = 7.5025
	require.True(t, got.TotalDiscount.Equal(dec("7.5")), got.TotalDiscount.String())
	require.True(t, got.GrandTotal.Equal(dec("52.52")))
	require.True(t, got.TaxableAmount.Equal(got.GrandTotal))

	empty := service.ComputeTotals(nil, decimal.Zero)
	require.Zero(t, empty.TotalQuantity)
	require.True(t, empty.GrandTotal.IsZero())
}

func TestReceivableAmount(t *testing.T) {
	o := models.Order{Status: models.OrderStatusPending, GrandTotal: dec("10")}
	require.True(t, service.ReceivableAmount(o).Equal(dec("10")))

	o.Status = models.OrderStatusCanceled
	require.True(t, service.ReceivableAmount(o).IsZero())

	o.Status, o.IsCanceled = models.OrderStatusDraft, true
	require.True(t, service.ReceivableAmount(o).IsZero())
}
