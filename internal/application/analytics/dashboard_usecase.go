// Package analytics contiene el resumen del tablero para managers.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

const dashboardTopProducts = 5 // productos en el widget del dashboard

// DashboardUseCase genera los KPIs del día y del mes en curso más el estado del inventario.
//
// Fuentes: AnalyticsRepository para ventas y ProductRepository para stock y vencimientos.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	productRepo   repository.ProductRepository
	windowDays    int
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso. windowDays <= 0 usa la ventana por defecto de alertas.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository, productRepo repository.ProductRepository, windowDays int) *DashboardUseCase {
	if windowDays <= 0 {
		windowDays = alert.DefaultExpiryWindowDays
	}
	return &DashboardUseCase{analyticsRepo: analyticsRepo, productRepo: productRepo, windowDays: windowDays, now: time.Now}
}

// GetSummary cuatro consultas en paralelo:
//  1. BillCounts(hoy)          → TodaySales, TodayBills
//  2. BillCounts(mes)          → MonthlySales, MonthlyBills
//  3. TopProducts(mes, top 5)  → TopProducts
//  4. ListAll                  → contadores de inventario
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	// Hoy: [00:00, mañana 00:00)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)
	// Mes en curso: día 1 hasta el fin de hoy
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		today, month *repository.BillCounts
		top          []repository.TopProduct
		stock        dto.InventoryHealthDTO
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if today, err = uc.analyticsRepo.BillCounts(gctx, todayStart, todayEnd); err != nil {
			return fmt.Errorf("dashboard: métricas de hoy: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if month, err = uc.analyticsRepo.BillCounts(gctx, monthStart, todayEnd); err != nil {
			return fmt.Errorf("dashboard: métricas del mes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if top, err = uc.analyticsRepo.TopProducts(gctx, monthStart, todayEnd, dashboardTopProducts); err != nil {
			return fmt.Errorf("dashboard: top productos: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		products, err := uc.productRepo.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("dashboard: productos: %w", err)
		}
		stock.TotalProducts = len(products)
		for _, p := range products {
			if p.IsLowStock() {
				stock.LowStock++
			}
			if p.ExpiryDate == nil {
				continue
			}
			switch days := alert.DaysUntil(*p.ExpiryDate, now); {
			case days < 0:
				stock.Expired++
			case days <= uc.windowDays:
				stock.ExpiringSoon++
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &dto.DashboardSummaryDTO{
		TodaySales:   today.TotalRevenue.Round(2),
		TodayBills:   today.TotalBills,
		MonthlySales: month.TotalRevenue.Round(2),
		MonthlyBills: month.TotalBills,
		TopProducts:  make([]dto.TopProductItem, 0, len(top)),
		Inventory:    stock,
		DateLabel:    now.Format("January 2006"),
	}
	out.Inventory.ExpiryWindowDays = uc.windowDays
	for _, t := range top {
		out.TopProducts = append(out.TopProducts, dto.TopProductItem{
			ProductID:     t.ProductID,
			Name:          t.Name,
			TotalQuantity: t.TotalQuantity,
			TotalRevenue:  t.TotalRevenue,
		})
	}
	return out, nil
}
