package service

import (
	"context"
	"errors"

	"backoffice-service/internal/models"
	"backoffice-service/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeOrder    OrderType = "ORDER"
	OrderTypePreOrder OrderType = "PRE_ORDER"
	OrderTypeShipped  OrderType = "SHIPPED"
)

// Status is the status an imported order of this type is created in.
func (t OrderType) Status() (models.OrderStatus, bool) {
	switch t {
	case OrderTypeOrder:
		return models.OrderStatusPending, true
	case OrderTypePreOrder:
		return models.OrderStatusPreOrder, true
	case OrderTypeShipped:
		return models.OrderStatusShipped, true
	}
	return "", false
}

// Mode is the capacity an import of this type is checked against.
func (t OrderType) Mode() stock.Mode {
	if t == OrderTypePreOrder {
		return stock.ModePreorder
	}
	return stock.ModeAvailable
}

// ImportRow is one spreadsheet row as text. Row is the 1-based sheet row
// used in messages; zero means "use the position in the slice".
type ImportRow struct {
	Row         int    `json:"row"`
	ProductCode string `json:"product_code"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Season      string `json:"season"`
}

type ImportInput struct {
	CustomerCode string
	OrderType    OrderType
	Rows         []ImportRow
	Notes        string
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ImportReport is the outcome of an import. A rejected or empty import is a
// report, not an error: SuccessCount is zero and Errors says why.
type ImportReport struct {
	TotalRows    int        `json:"total_rows"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors"`
	Rejected     bool       `json:"rejected"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	OrderNumber  string     `json:"order_number,omitempty"`
}

func (r *ImportReport) add(row int, err error) {
	r.Errors = append(r.Errors, RowError{Row: row, Message: err.Error(), Err: err})
	r.ErrorCount = len(r.Errors)
}

func (r *ImportReport) reject() {
	r.Rejected = true
	r.SuccessCount = 0
	r.OrderID = nil
	r.OrderNumber = ""
}

// Err joins the typed errors of the report, so callers can test it with
// errors.Is and errors.As. It is nil for a report without errors.
func (r *ImportReport) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Err != nil {
			errs = append(errs, e.Err)
		}
	}
	return errors.Join(errs...)
}

type ImportService interface {
	// ImportOrders validates the rows, checks stock for every product and,
	// only if every product fits, creates one order from the matched rows.
	// Fatal problems (unknown customer, no warehouse, storage failures)
	// are returned as errors with nothing written.
	ImportOrders(ctx context.Context, in ImportInput) (*ImportReport, error)
}

// importLine is a validated row matched to a product.
type importLine struct {
	row      int
	product  models.Product
	quantity int64
	price    decimal.Decimal
	priced   bool
	season   string
}
