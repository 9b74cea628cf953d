package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BillCounts totales agregados de facturas en un rango.
type BillCounts struct {
	TotalBills     int
	PendingBills   int
	CompletedBills int
	CancelledBills int
	TotalRevenue   decimal.Decimal // solo facturas completed
}

// TopProduct producto más vendido por cantidad.
type TopProduct struct {
	ProductID     int64
	Name          string
	TotalQuantity int
	TotalRevenue  decimal.Decimal
}

// DailySales ventas agregadas por día.
type DailySales struct {
	Date    time.Time
	Bills   int
	Revenue decimal.Decimal
}

// TrendingFilter criterio de ranking para /api/trending.
type TrendingFilter string

const (
	TrendingMostPurchased  TrendingFilter = "most_purchased"
	TrendingHighestRevenue TrendingFilter = "highest_revenue"
	TrendingFastestSelling TrendingFilter = "fastest_selling"
)

// TrendingQuery parámetros de la consulta de tendencias.
type TrendingQuery struct {
	Filter   TrendingFilter
	Since    time.Time
	Category string
	Limit    int // 0 = sin límite
}

// TrendingProduct fila del ranking de tendencias.
type TrendingProduct struct {
	ProductID     int64
	Name          string
	Category      string
	StockQuantity int
	TotalQuantity int
	TotalRevenue  decimal.Decimal
	BillCount     int
	DailyVelocity decimal.Decimal // unidades/día desde la primera venta dentro de la ventana
}

// AnalyticsRepository consultas de solo lectura para el resumen y tendencias.
// Los rangos son [from, to); un from/to cero no acota.
type AnalyticsRepository interface {
	BillCounts(ctx context.Context, from, to time.Time) (*BillCounts, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	DailySales(ctx context.Context, from, to time.Time) ([]DailySales, error)
	Trending(ctx context.Context, q TrendingQuery) ([]TrendingProduct, error)
}
