package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// AnalyticsUseCase resumen de ventas y ranking de productos.
type AnalyticsUseCase struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsUseCase construye el caso de uso.
func NewAnalyticsUseCase(repo repository.AnalyticsRepository) *AnalyticsUseCase {
	return &AnalyticsUseCase{repo: repo, now: time.Now}
}

// Summary totales, top 10 productos y ventas diarias. Sin rango, las ventas diarias
// cubren los últimos 7 días. Las tres consultas corren en paralelo.
func (uc *AnalyticsUseCase) Summary(ctx context.Context, dateFrom, dateTo string) (*dto.BillingSummaryResponse, error) {
	from, to, err := dto.ParseDateRange(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	dailyFrom, dailyTo := from, to
	if dailyFrom.IsZero() && dailyTo.IsZero() {
		today := truncateDay(uc.now())
		dailyFrom = today.AddDate(0, 0, -6)
		dailyTo = today.AddDate(0, 0, 1)
	}

	var (
		counts *repository.BillCounts
		top    []repository.TopProduct
		daily  []repository.DailySales
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = uc.repo.BillCounts(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = uc.repo.TopProducts(gctx, from, to, 10)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = uc.repo.DailySales(gctx, dailyFrom, dailyTo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &dto.BillingSummaryResponse{
		Summary: dto.SummaryTotals{
			TotalBills:     counts.TotalBills,
			TotalRevenue:   counts.TotalRevenue,
			PendingBills:   counts.PendingBills,
			CompletedBills: counts.CompletedBills,
			CancelledBills: counts.CancelledBills,
		},
		TopProducts: make([]dto.TopProductItem, 0, len(top)),
		DailySales:  make([]dto.DailySalesItem, 0, len(daily)),
		Range:       map[string]string{"date_from": dateFrom, "date_to": dateTo},
	}
	for _, t := range top {
		out.TopProducts = append(out.TopProducts, dto.TopProductItem{
			ProductID:     t.ProductID,
			Name:          t.Name,
			TotalQuantity: t.TotalQuantity,
			TotalRevenue:  t.TotalRevenue,
		})
	}
	for _, d := range daily {
		out.DailySales = append(out.DailySales, dto.DailySalesItem{
			Date:    d.Date.Format(dto.DateLayout),
			Bills:   d.Bills,
			Revenue: d.Revenue,
		})
	}
	return out, nil
}

// Trending ranking de productos vendidos en los últimos N días.
func (uc *AnalyticsUseCase) Trending(ctx context.Context, in dto.TrendingRequest) (*dto.TrendingResponse, error) {
	filter := repository.TrendingFilter(in.Filter)
	switch filter {
	case "":
		filter = repository.TrendingMostPurchased
	case repository.TrendingMostPurchased, repository.TrendingHighestRevenue, repository.TrendingFastestSelling:
	default:
		return nil, domain.Invalid("filter must be most_purchased, highest_revenue or fastest_selling")
	}
	days := in.Days
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	rows, err := uc.repo.Trending(ctx, repository.TrendingQuery{
		Filter:   filter,
		Since:    truncateDay(uc.now()).AddDate(0, 0, -days+1),
		Category: in.Category,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.TrendingResponse{Filter: string(filter), Days: days, Products: make([]dto.TrendingItem, 0, len(rows))}
	for _, r := range rows {
		out.Products = append(out.Products, dto.TrendingItem{
			ProductID:     r.ProductID,
			Name:          r.Name,
			Category:      r.Category,
			StockQuantity: r.StockQuantity,
			TotalQuantity: r.TotalQuantity,
			TotalRevenue:  r.TotalRevenue,
			BillCount:     r.BillCount,
			DailyVelocity: r.DailyVelocity.Round(2),
		})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
