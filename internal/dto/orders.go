package dto

import (
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ImportRequest struct {
	CustomerCode string              `json:"customer_code" binding:"required"`
	OrderType    string              `json:"order_type" binding:"required"`
	Notes        string              `json:"notes"`
	Rows         []service.ImportRow `json:"rows" binding:"required"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateLineRequest struct {
	ProductCode string           `json:"product_code" binding:"required"`
	Quantity    int64            `json:"quantity" binding:"required"`
	Price       *decimal.Decimal `json:"price"`
	Notes       *string          `json:"notes"`
}

type DiscountRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

type ShippingRequest struct {
	RecipientName  string `json:"recipient_name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	Country        string `json:"country"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNo      int             `json:"line_no"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductSKU  string          `json:"product_sku"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

type ShippingResponse struct {
	RecipientName  string    `json:"recipient_name"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	Status          string              `json:"status"`
	IsCanceled      bool                `json:"is_canceled"`
	OrderedAt       time.Time           `json:"ordered_at"`
	CurrencyID      uuid.UUID           `json:"currency_id"`
	Season          string              `json:"season,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	TotalQuantity   int64               `json:"total_quantity"`
	SubTotal        decimal.Decimal     `json:"sub_total"`
	TotalDiscount   decimal.Decimal     `json:"total_discount"`
	TaxableAmount   decimal.Decimal     `json:"taxable_amount"`
	GrandTotal      decimal.Decimal     `json:"grand_total"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	Shipping        *ShippingResponse   `json:"shipping,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
}

func FromOrder(o models.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		IsCanceled:      o.IsCanceled,
		OrderedAt:       o.OrderedAt,
		CurrencyID:      o.CurrencyID,
		Season:          o.Season,
		Notes:           o.Notes,
		DiscountPercent: o.DiscountPercent,
		TotalQuantity:   o.TotalQuantity,
		SubTotal:        o.SubTotal,
		TotalDiscount:   o.TotalDiscount,
		TaxableAmount:   o.TaxableAmount,
		GrandTotal:      o.GrandTotal,
	}
}

func FromAggregate(agg *service.OrderAggregate) OrderResponse {
	resp := FromOrder(agg.Order)
	resp.Items = make([]OrderItemResponse, 0, len(agg.Items))
	for _, it := range agg.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          it.ID,
			LineNo:      it.LineNo,
			ProductID:   it.ProductID,
			ProductSKU:  it.ProductSKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
			WarehouseID: it.WarehouseID,
			Notes:       it.Notes,
		})
	}
	if s := agg.Shipping; s != nil {
		resp.Shipping = &ShippingResponse{
			RecipientName:  s.RecipientName,
			Phone:          s.Phone,
			Address:        s.Address,
			City:           s.City,
			Country:        s.Country,
			Carrier:        s.Carrier,
			TrackingNumber: s.TrackingNumber,
			UpdatedAt:      s.UpdatedAt,
		}
	}
	return resp
}
