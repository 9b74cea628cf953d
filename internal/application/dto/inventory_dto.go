package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementListRequest filtros de GET /api/products/:id/movements.
type MovementListRequest struct {
	PageRequest
	DateFrom string `query:"date_from"`
	DateTo   string `query:"date_to"`
}

// MovementResponse un movimiento del kardex.
type MovementResponse struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	StockAfter int       `json:"stock_after"`
	BillID     *int64    `json:"bill_id,omitempty"`
	Reference  string    `json:"reference"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MovementListResponse kardex paginado de un producto.
type MovementListResponse struct {
	ProductID    int64              `json:"product_id"`
	ProductName  string             `json:"product_name"`
	CurrentStock int                `json:"current_stock"`
	Movements    []MovementResponse `json:"movements"`
	Pagination   Pagination         `json:"pagination"`
}

// ReplenishmentSuggestion sugerencia de reposición para un producto en o bajo su umbral.
type ReplenishmentSuggestion struct {
	ProductID         int64           `json:"product_id"`
	SKU               string          `json:"sku,omitempty"`
	ProductName       string          `json:"product_name"`
	Category          string          `json:"category"`
	CurrentStock      int             `json:"current_stock"`
	MinStockThreshold int             `json:"min_stock_threshold"`
	IdealStock        int             `json:"ideal_stock"`         // ceil(umbral * 1.5), al menos umbral+1
	SuggestedOrderQty int             `json:"suggested_order_qty"` // IdealStock - CurrentStock
	UnitPrice         decimal.Decimal `json:"unit_price"`
	EstimatedValue    decimal.Decimal `json:"estimated_value"` // SuggestedOrderQty * UnitPrice
	UnitsSold         int             `json:"units_sold"`      // en la ventana consultada
	DailyVelocity     decimal.Decimal `json:"daily_velocity"`
	Priority          int             `json:"priority"` // 1 = más urgente
}

// ReplenishmentResponse GET /api/products/meta/replenishment.
type ReplenishmentResponse struct {
	Days        int                       `json:"days"`
	Suggestions []ReplenishmentSuggestion `json:"suggestions"`
}
