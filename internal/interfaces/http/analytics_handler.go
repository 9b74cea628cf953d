package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/usecase"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// AnalyticsHandler maneja el resumen de ventas y el ranking de productos.
type AnalyticsHandler struct {
	uc  *usecase.AnalyticsUseCase
	log *logger.Logger
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(uc *usecase.AnalyticsUseCase, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc, log: log}
}

// Summary godoc
// @Summary      Resumen de facturación
// @Description  Totales por estado, ingresos de facturas completadas, top 10 productos por cantidad
// @Description  y ventas diarias (por defecto los últimos 7 días).
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        date_from  query  string  false  "YYYY-MM-DD"
// @Param        date_to    query  string  false  "YYYY-MM-DD (inclusivo)"
// @Success      200  {object}  dto.BillingSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/billing/stats/summary [get]
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Trending godoc
// @Summary      Productos en tendencia
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        filter    query  string  false  "most_purchased | highest_revenue | fastest_selling"  default(most_purchased)
// @Param        days      query  int     false  "Ventana en días (máx. 365)"  default(30)
// @Param        limit     query  int     false  "Máx. productos (máx. 50)"    default(10)
// @Param        category  query  string  false  "Categoría"
// @Success      200  {object}  dto.TrendingResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/trending [get]
func (h *AnalyticsHandler) Trending(c *fiber.Ctx) error {
	in := dto.TrendingRequest{
		Filter:   c.Query("filter"),
		Days:     c.QueryInt("days", 30),
		Limit:    c.QueryInt("limit", 10),
		Category: c.Query("category"),
	}
	out, err := h.uc.Trending(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
