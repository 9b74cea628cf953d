package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Fechas en formato YYYY-MM-DD.
type CreateProductRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	MinStockThreshold *int            `json:"min_stock_threshold"`
	Category          string          `json:"category"`
	SKU               string          `json:"sku"`
	BatchNo           string          `json:"batch_no"`
	ManufacturingDate string          `json:"manufacturing_date"`
	ExpiryDate        string          `json:"expiry_date"`
}

// UpdateProductRequest actualización parcial; los campos ausentes no se tocan.
// expiry_date "" borra la fecha.
type UpdateProductRequest struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	StockQuantity     *int             `json:"stock_quantity"`
	MinStockThreshold *int             `json:"min_stock_threshold"`
	Category          *string          `json:"category"`
	SKU               *string          `json:"sku"`
	BatchNo           *string          `json:"batch_no"`
	ManufacturingDate *string          `json:"manufacturing_date"`
	ExpiryDate        *string          `json:"expiry_date"`
}

// ProductListRequest filtros de GET /api/products.
type ProductListRequest struct {
	PageRequest
	Search   string `query:"search"`
	Category string `query:"category"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	MinStockThreshold int             `json:"min_stock_threshold"`
	Category          string          `json:"category"`
	SKU               string          `json:"sku,omitempty"`
	BatchNo           string          `json:"batch_no,omitempty"`
	ManufacturingDate *string         `json:"manufacturing_date,omitempty"`
	ExpiryDate        *string         `json:"expiry_date,omitempty"`
	LowStock          bool            `json:"low_stock"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// ProductSuggestion resultado de autocompletado.
type ProductSuggestion struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// AlertSweepResponse resultado de un barrido manual de alertas.
type AlertSweepResponse struct {
	Message string `json:"message"`
	Alerts  int    `json:"alerts"`
}
