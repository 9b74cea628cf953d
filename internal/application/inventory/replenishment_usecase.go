package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición: productos en o bajo su umbral,
// priorizados por volumen de ventas reciente.
type ReplenishmentUseCase struct {
	productRepo   repository.ProductRepository
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	productRepo repository.ProductRepository,
	analyticsRepo repository.AnalyticsRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		productRepo:   productRepo,
		analyticsRepo: analyticsRepo,
		now:           time.Now,
	}
}

// GenerateReplenishmentList devuelve los productos en stock bajo con la cantidad
// sugerida de pedido. days es la ventana de ventas (default 30, máximo 365).
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, days int) (*dto.ReplenishmentResponse, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	// 1. Productos en o bajo el umbral
	all, err := uc.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ReplenishmentResponse{Days: days, Suggestions: []dto.ReplenishmentSuggestion{}}
	for _, p := range all {
		if !p.IsLowStock() {
			continue
		}
		ideal := (p.MinStockThreshold*3 + 1) / 2
		if ideal <= p.MinStockThreshold {
			ideal = p.MinStockThreshold + 1
		}
		qty := ideal - p.StockQuantity
		if qty < 0 {
			qty = 0
		}
		out.Suggestions = append(out.Suggestions, dto.ReplenishmentSuggestion{
			ProductID:         p.ID,
			SKU:               p.SKU,
			ProductName:       p.Name,
			Category:          p.Category,
			CurrentStock:      p.StockQuantity,
			MinStockThreshold: p.MinStockThreshold,
			IdealStock:        ideal,
			SuggestedOrderQty: qty,
			UnitPrice:         p.Price,
			EstimatedValue:    p.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
			DailyVelocity:     decimal.Zero,
		})
	}
	if len(out.Suggestions) == 0 {
		return out, nil
	}

	// 2. Ventas de la ventana (sin límite de filas)
	y, m, d := uc.now().Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, time.Local).AddDate(0, 0, -days+1)
	sales, err := uc.analyticsRepo.Trending(ctx, repository.TrendingQuery{
		Filter: repository.TrendingMostPurchased,
		Since:  since,
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]repository.TrendingProduct, len(sales))
	for _, s := range sales {
		byID[s.ProductID] = s
	}
	for i := range out.Suggestions {
		if s, ok := byID[out.Suggestions[i].ProductID]; ok {
			out.Suggestions[i].UnitsSold = s.TotalQuantity
			out.Suggestions[i].DailyVelocity = s.DailyVelocity.Round(2)
		}
	}

	// 3. Orden: más vendidos, luego mayor déficit bajo el umbral
	sort.SliceStable(out.Suggestions, func(i, j int) bool {
		a, b := out.Suggestions[i], out.Suggestions[j]
		if a.UnitsSold != b.UnitsSold {
			return a.UnitsSold > b.UnitsSold
		}
		defA := a.MinStockThreshold - a.CurrentStock
		defB := b.MinStockThreshold - b.CurrentStock
		if defA != defB {
			return defA > defB
		}
		return a.ProductID < b.ProductID
	})
	for i := range out.Suggestions {
		out.Suggestions[i].Priority = i + 1
	}
	return out, nil
}
