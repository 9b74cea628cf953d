package dto

import "github.com/shopspring/decimal"

// BillingSummaryResponse GET /api/billing/stats/summary.
type BillingSummaryResponse struct {
	Summary     SummaryTotals     `json:"summary"`
	TopProducts []TopProductItem  `json:"top_products"`
	DailySales  []DailySalesItem  `json:"daily_sales"`
	Range       map[string]string `json:"range"`
}

// SummaryTotals contadores agregados.
type SummaryTotals struct {
	TotalBills     int             `json:"total_bills"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PendingBills   int             `json:"pending_bills"`
	CompletedBills int             `json:"completed_bills"`
	CancelledBills int             `json:"cancelled_bills"`
}

// TopProductItem producto más vendido.
type TopProductItem struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// DailySalesItem ventas de un día (YYYY-MM-DD).
type DailySalesItem struct {
	Date    string          `json:"date"`
	Bills   int             `json:"bills"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TrendingRequest filtros de GET /api/trending.
type TrendingRequest struct {
	Filter   string `query:"filter"`
	Days     int    `query:"days"`
	Limit    int    `query:"limit"`
	Category string `query:"category"`
}

// TrendingResponse ranking de productos.
type TrendingResponse struct {
	Filter   string         `json:"filter"`
	Days     int            `json:"days"`
	Products []TrendingItem `json:"products"`
}

// TrendingItem fila del ranking.
type TrendingItem struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	BillCount     int             `json:"bill_count"`
	DailyVelocity decimal.Decimal `json:"daily_velocity"`
}
