package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBillRequest body para POST /api/billing.
type CreateBillRequest struct {
	Items []BillItemRequest `json:"items"`
}

// BillItemRequest línea solicitada (producto y cantidad).
type BillItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// UpdateBillStatusRequest body para PATCH /api/billing/:id/status.
type UpdateBillStatusRequest struct {
	Status string `json:"status"`
}

// BillListRequest filtros de GET /api/billing.
type BillListRequest struct {
	PageRequest
	Status   string `query:"status"`
	UserID   int64  `query:"user_id"`
	DateFrom string `query:"date_from"`
	DateTo   string `query:"date_to"`
}

// BillResponse factura con detalle.
type BillResponse struct {
	ID          int64              `json:"id"`
	BillNumber  string             `json:"bill_number"`
	UserID      int64              `json:"user_id"`
	Username    string             `json:"username,omitempty"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Items       []BillItemResponse `json:"items,omitempty"`
	ItemCount   int                `json:"item_count"`
}

// BillItemResponse línea de factura en respuestas.
type BillItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// CreateBillResponse respuesta 201 de POST /api/billing.
type CreateBillResponse struct {
	Message string       `json:"message"`
	Bill    BillResponse `json:"bill"`
}

// UpdateBillStatusResponse respuesta de PATCH /api/billing/:id/status.
type UpdateBillStatusResponse struct {
	Message string       `json:"message"`
	Bill    BillResponse `json:"bill"`
}

// BillListResponse lista paginada de facturas.
type BillListResponse struct {
	Bills      []BillResponse `json:"bills"`
	Pagination Pagination     `json:"pagination"`
}
