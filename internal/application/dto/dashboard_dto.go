package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
// KPIs del día y del mes en curso, Top-5 productos del mes y estado del inventario.
type DashboardSummaryDTO struct {
	// Día actual (00:00 – 23:59), solo facturas completed
	TodaySales decimal.Decimal `json:"today_sales"`
	TodayBills int             `json:"today_bills"` // todas las facturas del día

	// Mes en curso (día 1 – hoy)
	MonthlySales decimal.Decimal `json:"monthly_sales"`
	MonthlyBills int             `json:"monthly_bills"`

	TopProducts []TopProductItem   `json:"top_products"`
	Inventory   InventoryHealthDTO `json:"inventory"`

	DateLabel string `json:"date_label"` // ej: "October 2026"
}

// InventoryHealthDTO contadores de stock y vencimiento.
type InventoryHealthDTO struct {
	TotalProducts    int `json:"total_products"`
	LowStock         int `json:"low_stock"`
	ExpiringSoon     int `json:"expiring_soon"`
	Expired          int `json:"expired"`
	ExpiryWindowDays int `json:"expiry_window_days"`
}
