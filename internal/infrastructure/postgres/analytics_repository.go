package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el resumen de facturación y tendencias.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// nullableTime convierte el cero en NULL para que el filtro no acote.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

const rangeFilter = `($1::timestamptz IS NULL OR b.created_at >= $1) AND ($2::timestamptz IS NULL OR b.created_at < $2)`

// BillCounts totales por estado; el ingreso solo suma facturas completed.
func (r *AnalyticsRepo) BillCounts(ctx context.Context, from, to time.Time) (*repository.BillCounts, error) {
	query := `
	SELECT
	    COUNT(*)                                                             AS total_bills,
	    COUNT(*) FILTER (WHERE b.status = 'pending')                         AS pending_bills,
	    COUNT(*) FILTER (WHERE b.status = 'completed')                       AS completed_bills,
	    COUNT(*) FILTER (WHERE b.status = 'cancelled')                       AS cancelled_bills,
	    COALESCE(SUM(b.total_amount) FILTER (WHERE b.status = 'completed'), 0) AS total_revenue
	FROM bills b
	WHERE ` + rangeFilter
	var out repository.BillCounts
	err := r.q.QueryRow(ctx, query, nullableTime(from), nullableTime(to)).Scan(
		&out.TotalBills, &out.PendingBills, &out.CompletedBills, &out.CancelledBills, &out.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("bill counts: %w", err)
	}
	return &out, nil
}

// TopProducts productos más vendidos por cantidad en facturas completed.
func (r *AnalyticsRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProduct, error) {
	query := `
	SELECT p.id, p.name, SUM(bi.quantity) AS total_quantity, SUM(bi.total_price) AS total_revenue
	FROM bill_items bi
	JOIN bills b    ON b.id = bi.bill_id
	JOIN products p ON p.id = bi.product_id
	WHERE b.status = 'completed' AND ` + rangeFilter + `
	GROUP BY p.id, p.name
	ORDER BY total_quantity DESC, p.id
	LIMIT $3`
	rows, err := r.q.Query(ctx, query, nullableTime(from), nullableTime(to), limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()
	out := make([]repository.TopProduct, 0)
	for rows.Next() {
		var t repository.TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.TotalQuantity, &t.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DailySales facturas completed agrupadas por día, ascendente.
func (r *AnalyticsRepo) DailySales(ctx context.Context, from, to time.Time) ([]repository.DailySales, error) {
	query := `
	SELECT date_trunc('day', b.created_at) AS day, COUNT(*) AS bills, COALESCE(SUM(b.total_amount), 0) AS revenue
	FROM bills b
	WHERE b.status = 'completed' AND ` + rangeFilter + `
	GROUP BY day
	ORDER BY day`
	rows, err := r.q.Query(ctx, query, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()
	out := make([]repository.DailySales, 0)
	for rows.Next() {
		var d repository.DailySales
		if err := rows.Scan(&d.Date, &d.Bills, &d.Revenue); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Trending ranking sobre facturas no canceladas desde q.Since.
// La velocidad es unidades / días desde la primera venta en la ventana (mínimo 1). Limit 0 no acota.
func (r *AnalyticsRepo) Trending(ctx context.Context, q repository.TrendingQuery) ([]repository.TrendingProduct, error) {
	order := "total_quantity DESC"
	switch q.Filter {
	case repository.TrendingHighestRevenue:
		order = "total_revenue DESC, total_quantity DESC"
	case repository.TrendingFastestSelling:
		order = "daily_velocity DESC, total_quantity DESC"
	}
	query := `
	SELECT
	    p.id, p.name, p.category, p.stock_quantity,
	    SUM(bi.quantity)            AS total_quantity,
	    SUM(bi.total_price)         AS total_revenue,
	    COUNT(DISTINCT b.id)        AS bill_count,
	    SUM(bi.quantity)::numeric / GREATEST(1, CEIL(EXTRACT(EPOCH FROM (now() - MIN(b.created_at))) / 86400))
	                                AS daily_velocity
	FROM bill_items bi
	JOIN bills b    ON b.id = bi.bill_id
	JOIN products p ON p.id = bi.product_id
	WHERE b.status <> 'cancelled'
	  AND b.created_at >= $1
	  AND ($2 = '' OR LOWER(p.category) = LOWER($2))
	GROUP BY p.id, p.name, p.category, p.stock_quantity
	ORDER BY ` + order + `, p.id
	LIMIT NULLIF($3::int, 0)`
	rows, err := r.q.Query(ctx, query, q.Since, q.Category, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("trending products: %w", err)
	}
	defer rows.Close()
	out := make([]repository.TrendingProduct, 0)
	for rows.Next() {
		var t repository.TrendingProduct
		var velocity decimal.Decimal
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Category, &t.StockQuantity,
			&t.TotalQuantity, &t.TotalRevenue, &t.BillCount, &velocity); err != nil {
			return nil, fmt.Errorf("scan trending product: %w", err)
		}
		t.DailyVelocity = velocity
		out = append(out, t)
	}
	return out, rows.Err()
}
