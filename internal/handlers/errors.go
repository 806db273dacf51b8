package handlers

import (
	"errors"
	"net/http"

	"backoffice-service/internal/dto"
	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service errors to the HTTP error envelope.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validation *service.ValidationError
		notFound   *service.NotFoundError
		stock      *service.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		log.Warn("validation failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", []dto.FieldError{{
			Field:   validation.Field,
			Message: validation.Message,
			Row:     validation.Row,
		}}))

	case errors.Is(err, service.ErrNoWarehouseConfigured), errors.Is(err, service.ErrNoCurrencyConfigured):
		log.Error("reference data missing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(err.Error()))

	case errors.As(err, &notFound):
		log.Warn("not found", zap.String("entity", notFound.Entity), zap.String("key", notFound.Key))
		c.JSON(http.StatusNotFound, dto.NewNotFoundError(err.Error()))

	case errors.As(err, &stock):
		log.Warn("insufficient stock", zap.Error(err))
		c.JSON(http.StatusConflict, dto.InsufficientStockErrorResponse{
			BaseError: dto.BaseError{Code: "insufficient_stock", Message: err.Error()},
			ProductID: stock.ProductID.String(),
			SKU:       stock.SKU,
			Mode:      string(stock.Mode),
			Requested: stock.Requested,
			Limit:     stock.Limit,
		})

	case errors.Is(err, service.ErrTerminalStatus),
		errors.Is(err, service.ErrPurchaseOrderNotOpen),
		errors.Is(err, service.ErrImportInProgress),
		errors.Is(err, service.ErrConcurrencyConflict):
		log.Warn("conflict", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusConflict, dto.NewConflictError(err.Error()))

	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(""))
	}
}

func badRequest(c *gin.Context, log *zap.Logger, field string, err error) {
	log.Warn("invalid request", zap.String("path", c.FullPath()), zap.String("field", field), zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request", []dto.FieldError{{Field: field, Message: err.Error()}}))
}
