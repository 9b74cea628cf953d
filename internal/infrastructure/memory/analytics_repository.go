package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo agregados calculados recorriendo los mapas.
type AnalyticsRepo struct {
	s *Store
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func (r *AnalyticsRepo) BillCounts(_ context.Context, from, to time.Time) (*repository.BillCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := &repository.BillCounts{TotalRevenue: decimal.Zero}
	for _, b := range r.s.bills {
		if !inRange(b.CreatedAt, from, to) {
			continue
		}
		out.TotalBills++
		switch b.Status {
		case entity.BillStatusPending:
			out.PendingBills++
		case entity.BillStatusCompleted:
			out.CompletedBills++
			out.TotalRevenue = out.TotalRevenue.Add(b.TotalAmount)
		case entity.BillStatusCancelled:
			out.CancelledBills++
		}
	}
	return out, nil
}

func (r *AnalyticsRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]repository.TopProduct, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	acc := make(map[int64]*repository.TopProduct)
	for id, b := range r.s.bills {
		if b.Status != entity.BillStatusCompleted || !inRange(b.CreatedAt, from, to) {
			continue
		}
		for _, it := range r.s.items[id] {
			t, ok := acc[it.ProductID]
			if !ok {
				t = &repository.TopProduct{ProductID: it.ProductID, Name: it.ProductName, TotalRevenue: decimal.Zero}
				if p, found := r.s.products[it.ProductID]; found {
					t.Name = p.Name
				}
				acc[it.ProductID] = t
			}
			t.TotalQuantity += it.Quantity
			t.TotalRevenue = t.TotalRevenue.Add(it.TotalPrice)
		}
	}
	out := make([]repository.TopProduct, 0, len(acc))
	for _, t := range acc {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantity != out[j].TotalQuantity {
			return out[i].TotalQuantity > out[j].TotalQuantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DailySales agrupa facturas completed por día calendario, ascendente.
func (r *AnalyticsRepo) DailySales(_ context.Context, from, to time.Time) ([]repository.DailySales, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	acc := make(map[time.Time]*repository.DailySales)
	for _, b := range r.s.bills {
		if b.Status != entity.BillStatusCompleted || !inRange(b.CreatedAt, from, to) {
			continue
		}
		y, m, d := b.CreatedAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, b.CreatedAt.Location())
		row, ok := acc[day]
		if !ok {
			row = &repository.DailySales{Date: day, Revenue: decimal.Zero}
			acc[day] = row
		}
		row.Bills++
		row.Revenue = row.Revenue.Add(b.TotalAmount)
	}
	out := make([]repository.DailySales, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Trending cuenta facturas pending y completed desde q.Since.
func (r *AnalyticsRepo) Trending(_ context.Context, q repository.TrendingQuery) ([]repository.TrendingProduct, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type agg struct {
		row       repository.TrendingProduct
		bills     map[int64]struct{}
		firstSale time.Time
	}
	acc := make(map[int64]*agg)
	for id, b := range r.s.bills {
		if b.Status == entity.BillStatusCancelled || !inRange(b.CreatedAt, q.Since, time.Time{}) {
			continue
		}
		for _, it := range r.s.items[id] {
			p, ok := r.s.products[it.ProductID]
			if !ok {
				continue
			}
			if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
				continue
			}
			a, ok := acc[p.ID]
			if !ok {
				a = &agg{
					row: repository.TrendingProduct{
						ProductID:     p.ID,
						Name:          p.Name,
						Category:      p.Category,
						StockQuantity: p.StockQuantity,
						TotalRevenue:  decimal.Zero,
					},
					bills:     make(map[int64]struct{}),
					firstSale: b.CreatedAt,
				}
				acc[p.ID] = a
			}
			a.row.TotalQuantity += it.Quantity
			a.row.TotalRevenue = a.row.TotalRevenue.Add(it.TotalPrice)
			a.bills[id] = struct{}{}
			if b.CreatedAt.Before(a.firstSale) {
				a.firstSale = b.CreatedAt
			}
		}
	}

	now := r.s.now()
	out := make([]repository.TrendingProduct, 0, len(acc))
	for _, a := range acc {
		a.row.BillCount = len(a.bills)
		a.row.DailyVelocity = velocity(a.row.TotalQuantity, a.firstSale, now)
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Filter {
		case repository.TrendingHighestRevenue:
			if !a.TotalRevenue.Equal(b.TotalRevenue) {
				return a.TotalRevenue.GreaterThan(b.TotalRevenue)
			}
		case repository.TrendingFastestSelling:
			if !a.DailyVelocity.Equal(b.DailyVelocity) {
				return a.DailyVelocity.GreaterThan(b.DailyVelocity)
			}
		}
		if a.TotalQuantity != b.TotalQuantity {
			return a.TotalQuantity > b.TotalQuantity
		}
		return a.ProductID < b.ProductID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// velocity unidades por día desde la primera venta; mínimo un día.
func velocity(qty int, first, now time.Time) decimal.Decimal {
	days := math.Ceil(now.Sub(first).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return decimal.NewFromInt(int64(qty)).Div(decimal.NewFromFloat(days))
}
