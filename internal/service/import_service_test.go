package service_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"
	"backoffice-service/internal/stock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestImport_OrderReservesStock(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "12.50", 10)

	rep := w.importOne(t, service.OrderTypeOrder, service.ImportRow{Row: 2, ProductCode: "SKU1", Quantity: "5"})

	require.Equal(t, 1, rep.TotalRows)
	require.Equal(t, 1, rep.SuccessCount)
	require.Equal(t, 0, rep.ErrorCount)
	require.NoError(t, rep.Err())

	onHand, reserved, _ := w.stockOf(p.ID)
	require.Equal(t, int64(10), onHand)
	require.Equal(t, int64(5), reserved)

	moves := w.movements()
	require.Len(t, moves, 1)
	require.Equal(t, models.MovementReserve, moves[0].Kind)
	require.Equal(t, int64(5), moves[0].ReservedDelta)
	require.Equal(t, int64(0), moves[0].ReservedBefore)
	require.Equal(t, int64(5), moves[0].ReservedAfter)
	require.Equal(t, models.SourceImportedSalesOrder, moves[0].SourceKind)
	require.Equal(t, rep.OrderNumber, moves[0].Reference)

	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, agg.Order.Status)
	require.True(t, agg.Order.GrandTotal.Equal(decimal.RequireFromString("62.50")), agg.Order.GrandTotal.String())
	require.Equal(t, int64(5), agg.Order.TotalQuantity)
	require.Equal(t, w.currency.ID, agg.Order.CurrencyID)
	require.Len(t, agg.Items, 1)
	require.Equal(t, w.warehouse.ID, *agg.Items[0].WarehouseID)

	rt := w.receivable(t, agg.Order)
	require.True(t, rt.Amount.Equal(agg.Order.GrandTotal))

	require.Len(t, w.events.imported, 1)
	require.Equal(t, rep.OrderNumber, w.events.imported[0].OrderNumber)
}

func TestImport_ThenShip(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "12.50", 10)
	rep := w.importOne(t, service.OrderTypeOrder, service.ImportRow{ProductCode: "SKU1", Quantity: "5"})

	_, err := w.orderService().ChangeStatus(context.Background(), *rep.OrderID, models.OrderStatusShipped)
	require.NoError(t, err)

	onHand, reserved, _ := w.stockOf(p.ID)
	require.Equal(t, int64(5), onHand)
	require.Equal(t, int64(0), reserved)

	moves := w.movements()
	require.Len(t, moves, 3)
	require.Equal(t, models.MovementUnreserve, moves[1].Kind)
	require.Equal(t, int64(-5), moves[1].ReservedDelta)
	require.Equal(t, models.MovementSale, moves[2].Kind)
	require.Equal(t, int64(-5), moves[2].OnHandDelta)
	require.Equal(t, models.SourceOrderStatusTransition, moves[2].SourceKind)
	requireLedgerInvariant(t, moves)
}

func TestImport_PreOrderOverCapacityIsRejected(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "3", 10)
	w.incoming(t, p.ID, 20, 5)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypePreOrder,
		Rows:         []service.ImportRow{{ProductCode: "SKU1", Quantity: "30"}},
	})
	require.NoError(t, err)
	require.True(t, rep.Rejected)
	require.Equal(t, 0, rep.SuccessCount)
	require.Nil(t, rep.OrderID)

	var stockErr *service.InsufficientStockError
	require.ErrorAs(t, rep.Err(), &stockErr)
	require.Equal(t, stock.ModePreorder, stockErr.Mode)
	require.Equal(t, int64(30), stockErr.Requested)
	require.Equal(t, int64(25), stockErr.Limit)
	require.ErrorIs(t, rep.Err(), service.ErrInsufficientStock)

	require.Zero(t, w.orderCount())
	require.Empty(t, w.movements())
}

func TestImport_PreOrderWithinCapacity(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "3", 10)
	w.incoming(t, p.ID, 15, 0)

	rep := w.importOne(t, service.OrderTypePreOrder, service.ImportRow{ProductCode: "SKU1", Quantity: "25"})

	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPreOrder, agg.Order.Status)
	_, reserved, _ := w.stockOf(p.ID)
	require.Equal(t, int64(25), reserved)
}

func TestImport_AnyFailingGroupRejectsEverything(t *testing.T) {
	w := newWorld(t)
	fits := w.product(t, "FITS", "1", 100)
	short := w.product(t, "SHORT", "1", 50)
	fresh := w.product(t, "FRESH", "1", 0)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows: []service.ImportRow{
			{ProductCode: "FITS", Quantity: "10"},
			{ProductCode: "SHORT", Quantity: "60"},
			{ProductCode: "SHORT", Quantity: "40"},
			{ProductCode: "FRESH", Quantity: "1"},
		},
	})
	require.NoError(t, err)
	require.True(t, rep.Rejected)
	require.Equal(t, 0, rep.SuccessCount)
	// SHORT is checked on its grouped total (100 > 50); FRESH has nothing on hand.
	require.Equal(t, 2, rep.ErrorCount)

	require.Zero(t, w.orderCount())
	require.Zero(t, w.itemCount())
	require.Empty(t, w.movements())

	onHand, reserved, _ := w.stockOf(fits.ID)
	require.Equal(t, int64(100), onHand)
	require.Zero(t, reserved)
	onHand, _, _ = w.stockOf(short.ID)
	require.Equal(t, int64(50), onHand)
	_, _, exists := w.stockOf(fresh.ID)
	require.False(t, exists, "rejected import must not leave inventory rows behind")
}

func TestImport_SKUMatchingIgnoresCaseAndSpace(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "ABC-1", "2", 10)

	rep := w.importOne(t, service.OrderTypeOrder,
		service.ImportRow{ProductCode: "abc-1", Quantity: "1"},
		service.ImportRow{ProductCode: "ABC-1 ", Quantity: "2"},
		service.ImportRow{ProductCode: "Abc-1", Quantity: "3"},
	)
	require.Equal(t, 3, rep.SuccessCount)

	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Len(t, agg.Items, 3, "rows are not merged into one item")
	for _, it := range agg.Items {
		require.Equal(t, p.ID, it.ProductID)
	}

	moves := w.movements()
	require.Len(t, moves, 1, "stock is moved once per product group")
	require.Equal(t, int64(6), moves[0].ReservedDelta)
}

func TestImport_RowErrorsAreCollected(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "cust1",
		OrderType:    service.OrderTypeOrder,
		Rows: []service.ImportRow{
			{Row: 2, ProductCode: "SKU1", Quantity: "2"},
			{Row: 3, ProductCode: "  ", Quantity: "2"},
			{Row: 4, ProductCode: "SKU1", Quantity: "two"},
			{Row: 5, ProductCode: "SKU1", Quantity: "0"},
			{Row: 6, ProductCode: "NOPE", Quantity: "1"},
			{Row: 7, ProductCode: "SKU1", Quantity: "1", Price: "abc"},
		},
	})
	require.NoError(t, err)
	require.False(t, rep.Rejected)
	require.Equal(t, 6, rep.TotalRows)
	require.Equal(t, 2, rep.SuccessCount)
	require.Equal(t, 4, rep.ErrorCount)

	rows := []int{}
	for _, e := range rep.Errors {
		rows = append(rows, e.Row)
	}
	require.ElementsMatch(t, []int{3, 4, 5, 6}, rows)
	require.ErrorIs(t, rep.Err(), service.ErrProductNotFound)
	require.ErrorIs(t, rep.Err(), service.ErrQuantityInvalid)
}

func TestImport_NoValidLinesIsAReport(t *testing.T) {
	w := newWorld(t)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows: []service.ImportRow{
			{ProductCode: "UNKNOWN", Quantity: "1"},
			{ProductCode: "", Quantity: "1"},
		},
	})
	require.NoError(t, err)
	require.True(t, rep.Rejected)
	require.Equal(t, 0, rep.SuccessCount)
	require.ErrorIs(t, rep.Err(), service.ErrNoValidLines)
	require.Zero(t, w.orderCount())
}

func TestImport_UnknownCustomerIsFatal(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "NOBODY",
		OrderType:    service.OrderTypeOrder,
		Rows:         []service.ImportRow{{ProductCode: "SKU1", Quantity: "1"}},
	})
	require.Nil(t, rep)
	require.ErrorIs(t, err, service.ErrCustomerNotFound)
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "customer", nf.Entity)
	require.Zero(t, w.orderCount())
}

func TestImport_NoWarehouseIsFatal(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 0)
	w.store.state().warehouses = nil

	_, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows:         []service.ImportRow{{ProductCode: "SKU1", Quantity: "1"}},
	})
	require.ErrorIs(t, err, service.ErrNoWarehouseConfigured)
}

func TestImport_InvalidOrderType(t *testing.T) {
	w := newWorld(t)
	_, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    "RETURN",
	})
	require.ErrorIs(t, err, service.ErrInvalidOrderType)
}

func TestImport_ShippedConsumesOnHand(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "4", 10)

	rep := w.importOne(t, service.OrderTypeShipped, service.ImportRow{ProductCode: "SKU1", Quantity: "4", Price: "5,25"})

	onHand, reserved, _ := w.stockOf(p.ID)
	require.Equal(t, int64(6), onHand)
	require.Zero(t, reserved)

	moves := w.movements()
	require.Len(t, moves, 1)
	require.Equal(t, models.MovementSale, moves[0].Kind)

	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, agg.Order.Status)
	require.True(t, agg.Order.GrandTotal.Equal(decimal.RequireFromString("21")), agg.Order.GrandTotal.String())
}

func TestImport_PriceFallback(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "10", 10)
	free := w.product(t, "FREE", "", 10)
	// A newer active price wins over the older one.
	require.NoError(t, w.store.Repos().Products.CreatePrice(context.Background(), &models.ProductPrice{
		ProductID: p.ID,
		Price:     decimal.RequireFromString("11.75"),
		ValidFrom: testNow.AddDate(0, 0, -1),
		IsActive:  true,
	}))

	rep := w.importOne(t, service.OrderTypeOrder,
		service.ImportRow{ProductCode: "SKU1", Quantity: "1", Price: "not a price"},
		service.ImportRow{ProductCode: "SKU1", Quantity: "1", Price: "1.234,50"},
		service.ImportRow{ProductCode: "FREE", Quantity: "1"},
	)

	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Len(t, agg.Items, 3)
	require.True(t, agg.Items[0].UnitPrice.Equal(decimal.RequireFromString("11.75")))
	require.True(t, agg.Items[1].UnitPrice.Equal(decimal.RequireFromString("1234.50")))
	require.Equal(t, free.ID, agg.Items[2].ProductID)
	require.True(t, agg.Items[2].UnitPrice.IsZero())
}

func TestImport_SeasonFromFirstRow(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)

	rep := w.importOne(t, service.OrderTypeOrder,
		service.ImportRow{ProductCode: "SKU1", Quantity: "1"},
		service.ImportRow{ProductCode: "SKU1", Quantity: "1", Season: " SS26 "},
	)
	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Equal(t, "SS26", agg.Order.Season)
}

func TestImport_LockPreventsDuplicate(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)
	in := service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows:         []service.ImportRow{{ProductCode: "SKU1", Quantity: "1"}},
	}

	lock := newFakeLock()
	lock.held[service.ImportFingerprint(in)] = "other-instance"
	_, err := w.importService(lock).ImportOrders(context.Background(), in)
	require.ErrorIs(t, err, service.ErrImportInProgress)
	require.Zero(t, w.orderCount())

	delete(lock.held, service.ImportFingerprint(in))
	rep, err := w.importService(lock).ImportOrders(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, rep.SuccessCount)
	require.Empty(t, lock.held, "lock is released after the import")
	require.Len(t, lock.unlocked, 1)
}

func TestImport_LockOutageDoesNotBlockImports(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)
	lock := newFakeLock()
	lock.err = errors.New("redis down")

	rep, err := w.importService(lock).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows:         []service.ImportRow{{ProductCode: "SKU1", Quantity: "1"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, rep.SuccessCount)
}

func TestImport_StorageFailureLeavesNothing(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "1", 10)
	w.store.state().faults.receivable = errors.New("connection reset")

	_, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows:         []service.ImportRow{{ProductCode: "SKU1", Quantity: "3"}},
	})
	require.Error(t, err)
	require.Zero(t, w.orderCount())
	require.Empty(t, w.movements())
	_, reserved, _ := w.stockOf(p.ID)
	require.Zero(t, reserved)
}

func TestImport_HugeQuantitiesAreRowErrors(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, "SKU1", "1", 10)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows: []service.ImportRow{
			{Row: 2, ProductCode: "SKU1", Quantity: "9223372036854775807"},
			{Row: 3, ProductCode: "SKU1", Quantity: "9223372036854775807"},
		},
	})
	require.NoError(t, err)
	require.True(t, rep.Rejected)
	require.Equal(t, 0, rep.SuccessCount)
	require.ErrorIs(t, rep.Err(), service.ErrQuantityInvalid)
	require.ErrorIs(t, rep.Err(), service.ErrNoValidLines)
	require.Equal(t, 2, rep.Errors[0].Row)
	require.Equal(t, 3, rep.Errors[1].Row)

	_, reserved, _ := w.stockOf(p.ID)
	require.Zero(t, reserved)
	require.Empty(t, w.movements())
	require.Zero(t, w.orderCount())
}

func TestImport_LargeGroupedQuantityIsCheckedWithoutWrapping(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)
	maxQty := strconv.FormatInt(stock.MaxLineQuantity, 10)

	rep, err := w.importService(nil).ImportOrders(context.Background(), service.ImportInput{
		CustomerCode: "CUST1",
		OrderType:    service.OrderTypeOrder,
		Rows: []service.ImportRow{
			{ProductCode: "SKU1", Quantity: maxQty},
			{ProductCode: "sku1", Quantity: maxQty},
		},
	})
	require.NoError(t, err)
	require.True(t, rep.Rejected)

	var short *service.InsufficientStockError
	require.ErrorAs(t, rep.Err(), &short)
	require.Equal(t, 2*stock.MaxLineQuantity, short.Requested)
	require.Equal(t, int64(10), short.Limit)
	require.Empty(t, w.movements())
}

func TestImport_PricesKeepColumnScale(t *testing.T) {
	w := newWorld(t)
	w.product(t, "SKU1", "1", 10)

	rep := w.importOne(t, service.OrderTypeOrder, service.ImportRow{ProductCode: "SKU1", Quantity: "3", Price: "1.23456"})

	agg, err := w.orderService().GetOrder(context.Background(), *rep.OrderID)
	require.NoError(t, err)
	require.Equal(t, "1.2346", agg.Items[0].UnitPrice.String())
	require.Equal(t, "3.7038", agg.Items[0].LineTotal.String())
	require.True(t, agg.Order.SubTotal.Equal(agg.Items[0].UnitPrice.Mul(decimal.NewFromInt(3))))
}
