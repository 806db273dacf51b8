package service

import (
	"errors"
	"fmt"

	"backoffice-service/internal/stock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrPurchaseItemNotFound  = errors.New("purchase order item not found")
	ErrNoWarehouseConfigured = errors.New("no default or active warehouse configured")
	ErrNoCurrencyConfigured  = errors.New("no base or active currency configured")
	ErrNoValidLines          = errors.New("no valid lines")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrConcurrencyConflict   = errors.New("concurrency conflict")
	ErrTerminalStatus        = errors.New("order is in a terminal status")
	ErrInvalidStatus         = errors.New("invalid order status")
	ErrInvalidOrderType      = errors.New("invalid order type")
	ErrQuantityInvalid       = errors.New("quantity must be > 0")
	ErrPriceInvalid          = errors.New("price must be >= 0")
	ErrDiscountInvalid       = errors.New("discount percent must be within [0, 100]")
	ErrPurchaseOrderNotOpen  = errors.New("purchase order is not open")
	ErrOverReceipt           = errors.New("received quantity exceeds ordered quantity")
	ErrImportInProgress      = errors.New("same import is already in progress")
)

// ValidationError is a row-level input problem. Row is zero for errors that
// are not tied to a spreadsheet row.
type ValidationError struct {
	Row     int
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

type NotFoundError struct {
	Entity string
	Key    string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// InsufficientStockError describes one product group whose requested
// quantity exceeds the capacity selected by Mode.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	SKU         string
	Mode        stock.Mode
	Requested   int64
	Limit       int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, %s %d", e.SKU, e.Requested, e.Mode, e.Limit)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConcurrencyConflictError is a serialization failure or deadlock reported
// by the database. Callers retry it a bounded number of times.
type ConcurrencyConflictError struct {
	Attempts int
	Err      error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("concurrency conflict after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("concurrency conflict: %v", e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() []error { return []error{ErrConcurrencyConflict, e.Err} }

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// classifyStorageError turns PostgreSQL conflict codes into ConcurrencyConflictError
// and leaves every other error untouched.
func classifyStorageError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return &ConcurrencyConflictError{Err: err}
		}
	}
	return err
}

func notFound(entity, key string, sentinel error) error {
	return &NotFoundError{Entity: entity, Key: key, Err: sentinel}
}
