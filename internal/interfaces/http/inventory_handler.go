package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// InventoryHandler kardex y reposición (solo manager).
type InventoryHandler struct {
	movements     *inventory.MovementUseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movements *inventory.MovementUseCase, replenishment *inventory.ReplenishmentUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{movements: movements, replenishment: replenishment, log: log}
}

// Movements godoc
// @Summary      Kardex de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id         path   int     true   "ID del producto"
// @Param        date_from  query  string  false  "YYYY-MM-DD"
// @Param        date_to    query  string  false  "YYYY-MM-DD (inclusivo)"
// @Param        page       query  int     false  "Página"  default(1)
// @Param        limit      query  int     false  "Límite"  default(50)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ID", "id debe ser un entero positivo")
	}
	in := dto.MovementListRequest{
		PageRequest: dto.PageRequest{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 50)},
		DateFrom:    c.Query("date_from"),
		DateTo:      c.Query("date_to"),
	}
	out, err := h.movements.ListByProduct(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Productos en o bajo su umbral con la cantidad sugerida de pedido, ordenados por ventas recientes.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana de ventas en días"  default(30)
// @Success      200   {object}  dto.ReplenishmentResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/products/meta/replenishment [get]
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	out, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), c.QueryInt("days", 30))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
