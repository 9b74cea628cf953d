package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// respondError traduce errores de dominio a status y código. Lo no reconocido es 500
// con mensaje genérico; el detalle solo va al log.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		verr  *domain.ValidationError
		nferr *domain.NotFoundError
		isErr *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, "VALIDATION", verr.Message)
	case errors.As(err, &isErr):
		return errorJSON(c, fiber.StatusBadRequest, "INSUFFICIENT_STOCK", isErr.Error())
	case errors.As(err, &nferr):
		return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", nferr.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_STATUS", "Invalid status. Must be one of: pending, completed, cancelled")
	case errors.Is(err, domain.ErrInsufficientStock):
		return errorJSON(c, fiber.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return errorJSON(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, domain.ErrInvalidTransition):
		return errorJSON(c, fiber.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, domain.ErrProductInUse):
		return errorJSON(c, fiber.StatusConflict, "PRODUCT_IN_USE", "Product is referenced by existing bills")
	case errors.Is(err, domain.ErrDuplicate):
		return errorJSON(c, fiber.StatusConflict, "DUPLICATE", "Resource already exists")
	case errors.Is(err, domain.ErrConflict):
		return errorJSON(c, fiber.StatusConflict, "CONFLICT", err.Error())
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).
		Interface("request_id", c.Locals(LocalRequestID)).Msg("error interno")
	return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", "Internal server error")
}

func errorJSON(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// parseID lee :id como entero positivo.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
