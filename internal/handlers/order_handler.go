package handlers

import (
	"context"
	"net/http"
	"strconv"

	"backoffice-service/internal/dto"
	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	imports  service.ImportService
	orders   service.OrderService
	attempts int
	log      *zap.Logger
}

// NewOrderHandler serves the import and order endpoints. Writes are retried up
// to attempts times on a concurrency conflict.
func NewOrderHandler(imports service.ImportService, orders service.OrderService, attempts int, log *zap.Logger) *OrderHandler {
	return &OrderHandler{imports: imports, orders: orders, attempts: attempts, log: log}
}

func (h *OrderHandler) retry(ctx context.Context, fn func() error) error {
	return service.RetryOnConflict(ctx, h.attempts, fn)
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid order id", []dto.FieldError{{Field: "id", Message: err.Error()}}))
		return uuid.Nil, false
	}
	return id, true
}

// Import godoc
// @Summary Импорт заказа из строк таблицы
// @Description Проверяет строки и остатки; заказ создаётся только если все товары проходят проверку
// @Tags orders
// @Accept json
// @Produce json
// @Param import body dto.ImportRequest true "Строки импорта"
// @Success 200 {object} service.ImportReport
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 404 {object} dto.NotFoundErrorResponse "Клиент не найден"
// @Failure 409 {object} dto.ConflictErrorResponse "Импорт уже выполняется"
// @Failure 500 {object} dto.InternalErrorResponse
// @Router /api/v1/imports [post]
func (h *OrderHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	var report *service.ImportReport
	err := h.retry(c.Request.Context(), func() error {
		var err error
		report, err = h.imports.ImportOrders(c.Request.Context(), service.ImportInput{
			CustomerCode: req.CustomerCode,
			OrderType:    service.OrderType(req.OrderType),
			Rows:         req.Rows,
			Notes:        req.Notes,
		})
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListOrders godoc
// @Summary Список заказов
// @Tags orders
// @Produce json
// @Param customer_id query string false "Клиент"
// @Param status query string false "Статус"
// @Param limit query int false "Лимит" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} dto.OrderListResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var f service.ListFilter
	if v := c.Query("customer_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			badRequest(c, h.log, "customer_id", err)
			return
		}
		f.CustomerID = &id
	}
	if v := c.Query("status"); v != "" {
		st := models.OrderStatus(v)
		f.Status = &st
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, total, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.OrderListResponse{Orders: make([]dto.OrderResponse, 0, len(list)), Total: total}
	for _, o := range list {
		resp.Orders = append(resp.Orders, dto.FromOrder(o))
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrder godoc
// @Summary Заказ со строками и доставкой
// @Tags orders
// @Produce json
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} dto.NotFoundErrorResponse
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	agg, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAggregate(agg))
}

// ChangeStatus godoc
// @Summary Смена статуса заказа
// @Description Применяет складской эффект перехода и пересчитывает итоги
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID заказа"
// @Param status body dto.ChangeStatusRequest true "Новый статус"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 404 {object} dto.NotFoundErrorResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Терминальный статус"
// @Router /api/v1/orders/{id}/status [post]
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	var agg *service.OrderAggregate
	err := h.retry(c.Request.Context(), func() error {
		var err error
		agg, err = h.orders.ChangeStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAggregate(agg))
}

// UpdateLine godoc
// @Summary Изменение или добавление строки заказа
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID заказа"
// @Param line body dto.UpdateLineRequest true "Строка"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 404 {object} dto.NotFoundErrorResponse
// @Router /api/v1/orders/{id}/lines [put]
func (h *OrderHandler) UpdateLine(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req dto.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	var agg *service.OrderAggregate
	err := h.retry(c.Request.Context(), func() error {
		var err error
		agg, err = h.orders.UpdateLine(c.Request.Context(), service.UpdateLineInput{
			OrderID:     id,
			ProductCode: req.ProductCode,
			Quantity:    req.Quantity,
			Price:       req.Price,
			Notes:       req.Notes,
		})
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAggregate(agg))
}

// RemoveLine godoc
// @Summary Удаление строки заказа
// @Description Зарезервированный остаток не возвращается до следующей смены статуса
// @Tags orders
// @Param id path string true "ID заказа"
// @Param code path string true "Артикул"
// @Success 204
// @Failure 404 {object} dto.NotFoundErrorResponse
// @Router /api/v1/orders/{id}/lines/{code} [delete]
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var removed bool
	err := h.retry(c.Request.Context(), func() error {
		var err error
		removed, err = h.orders.RemoveLine(c.Request.Context(), id, c.Param("code"))
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("order line not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// SetDiscount godoc
// @Summary Скидка на заказ в процентах
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID заказа"
// @Param discount body dto.DiscountRequest true "Процент 0..100"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /api/v1/orders/{id}/discount [put]
func (h *OrderHandler) SetDiscount(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req dto.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	var agg *service.OrderAggregate
	err := h.retry(c.Request.Context(), func() error {
		var err error
		agg, err = h.orders.SetDiscount(c.Request.Context(), id, req.Percent)
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAggregate(agg))
}

// SetShipping godoc
// @Summary Данные доставки
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID заказа"
// @Param shipping body dto.ShippingRequest true "Доставка"
// @Success 200 {object} dto.OrderResponse
// @Router /api/v1/orders/{id}/shipping [put]
func (h *OrderHandler) SetShipping(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req dto.ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	agg, err := h.orders.SetShipping(c.Request.Context(), id, service.ShippingInput{
		RecipientName:  req.RecipientName,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		Country:        req.Country,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAggregate(agg))
}
