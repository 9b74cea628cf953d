package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/usecase"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// SettingsHandler preferencias de notificación del manager autenticado.
type SettingsHandler struct {
	uc  *usecase.SettingsUseCase
	log *logger.Logger
}

// NewSettingsHandler construye el handler.
func NewSettingsHandler(uc *usecase.SettingsUseCase, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{uc: uc, log: log}
}

// Get godoc
// @Summary      Obtener preferencias de notificación
// @Tags         manager-settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ManagerSettingsResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/manager-settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Save godoc
// @Summary      Guardar preferencias de notificación
// @Tags         manager-settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ManagerSettingsRequest  true  "Email y toggles"
// @Success      200   {object}  dto.ManagerSettingsEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/manager-settings [post]
func (h *SettingsHandler) Save(c *fiber.Ctx) error {
	var in dto.ManagerSettingsRequest
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Save(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ManagerSettingsEnvelope{Message: "Settings saved successfully", Settings: *out})
}

// ToggleAlerts godoc
// @Summary      Activar o desactivar alertas
// @Tags         manager-settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ToggleAlertsRequest  true  "enable y kind (low_stock, expiry, all)"
// @Success      200   {object}  dto.ManagerSettingsEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/manager-settings/toggle-alerts [patch]
func (h *SettingsHandler) ToggleAlerts(c *fiber.Ctx) error {
	var in dto.ToggleAlertsRequest
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.ToggleAlerts(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ManagerSettingsEnvelope{Message: "Alert preferences updated", Settings: *out})
}

// TestEmail godoc
// @Summary      Enviar correo de prueba
// @Tags         manager-settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/manager-settings/test-email [post]
func (h *SettingsHandler) TestEmail(c *fiber.Ctx) error {
	to, err := h.uc.SendTestEmail(c.UserContext(), GetUserID(c), GetUsername(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Test email sent successfully to " + to})
}
