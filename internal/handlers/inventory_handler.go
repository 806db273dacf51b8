package handlers

import (
	"net/http"
	"strconv"
	"time"

	"backoffice-service/internal/dto"
	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventory service.InventoryService
	attempts  int
	log       *zap.Logger
}

func NewInventoryHandler(inventory service.InventoryService, attempts int, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, attempts: attempts, log: log}
}

func optionalUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+key, []dto.FieldError{{Field: key, Message: err.Error()}}))
		return nil, false
	}
	return &id, true
}

func optionalTime(c *gin.Context, key string) (*time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+key, []dto.FieldError{{Field: key, Message: err.Error()}}))
		return nil, false
	}
	return &t, true
}

// Availability godoc
// @Summary Доступный остаток товара
// @Tags inventory
// @Produce json
// @Param product_id path string true "ID товара"
// @Param warehouse_id query string false "Склад (по умолчанию основной)"
// @Success 200 {object} service.AvailabilityView
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /api/v1/inventory/{product_id}/availability [get]
func (h *InventoryHandler) Availability(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		badRequest(c, h.log, "product_id", err)
		return
	}
	warehouseID, ok := optionalUUID(c, "warehouse_id")
	if !ok {
		return
	}

	view, err := h.inventory.Availability(c.Request.Context(), productID, warehouseID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Movements godoc
// @Summary Журнал движений остатков
// @Tags inventory
// @Produce json
// @Param product_id query string false "Товар"
// @Param warehouse_id query string false "Склад"
// @Param source_kind query string false "Тип документа-источника"
// @Param source_id query string false "ID документа-источника"
// @Param from query string false "С (RFC3339)"
// @Param to query string false "По (RFC3339)"
// @Param limit query int false "Лимит" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} dto.MovementListResponse
// @Router /api/v1/inventory/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	var (
		f  service.MovementFilter
		ok bool
	)
	if f.ProductID, ok = optionalUUID(c, "product_id"); !ok {
		return
	}
	if f.WarehouseID, ok = optionalUUID(c, "warehouse_id"); !ok {
		return
	}
	if f.SourceID, ok = optionalUUID(c, "source_id"); !ok {
		return
	}
	if f.From, ok = optionalTime(c, "from"); !ok {
		return
	}
	if f.To, ok = optionalTime(c, "to"); !ok {
		return
	}
	if v := c.Query("source_kind"); v != "" {
		kind := models.SourceKind(v)
		f.SourceKind = &kind
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, total, err := h.inventory.Movements(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.MovementListResponse{Movements: make([]dto.MovementResponse, 0, len(rows)), Total: total}
	for _, m := range rows {
		resp.Movements = append(resp.Movements, dto.FromMovement(m))
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustStock godoc
// @Summary Корректировка остатка по инвентаризации
// @Tags inventory
// @Accept json
// @Produce json
// @Param adjustment body dto.AdjustStockRequest true "Корректировка"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 404 {object} dto.NotFoundErrorResponse
// @Router /api/v1/inventory/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	var row *models.StockMovement
	err := service.RetryOnConflict(c.Request.Context(), h.attempts, func() error {
		var err error
		row, err = h.inventory.AdjustStock(c.Request.Context(), service.AdjustStockInput{
			ProductID:   req.ProductID,
			WarehouseID: req.WarehouseID,
			OnHandDelta: req.OnHandDelta,
			Reference:   req.Reference,
			Note:        req.Note,
		})
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromMovement(*row))
}

// ReceivePurchase godoc
// @Summary Приёмка по заказу поставщику
// @Tags inventory
// @Accept json
// @Produce json
// @Param receipt body dto.ReceivePurchaseRequest true "Приёмка"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} dto.ValidationErrorResponse "Превышение заказанного количества"
// @Failure 404 {object} dto.NotFoundErrorResponse
// @Failure 409 {object} dto.ConflictErrorResponse "Заказ поставщику закрыт"
// @Router /api/v1/purchases/receipts [post]
func (h *InventoryHandler) ReceivePurchase(c *gin.Context) {
	var req dto.ReceivePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "body", err)
		return
	}

	var row *models.StockMovement
	err := service.RetryOnConflict(c.Request.Context(), h.attempts, func() error {
		var err error
		row, err = h.inventory.ReceivePurchase(c.Request.Context(), service.ReceivePurchaseInput{
			PurchaseOrderItemID: req.PurchaseOrderItemID,
			Quantity:            req.Quantity,
		})
		return err
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromMovement(*row))
}
