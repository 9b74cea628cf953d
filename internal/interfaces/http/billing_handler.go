package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// BillingHandler maneja creación, consulta, estado y PDF de facturas.
type BillingHandler struct {
	create *billing.CreateBillUseCase
	query  *billing.BillQueryUseCase
	status *billing.UpdateBillStatusUseCase
	pdf    *billing.PDFUseCase
	log    *logger.Logger
}

// NewBillingHandler construye el handler.
func NewBillingHandler(
	create *billing.CreateBillUseCase,
	query *billing.BillQueryUseCase,
	status *billing.UpdateBillStatusUseCase,
	pdf *billing.PDFUseCase,
	log *logger.Logger,
) *BillingHandler {
	return &BillingHandler{create: create, query: query, status: status, pdf: pdf, log: log}
}

// Create godoc
// @Summary      Crear factura
// @Description  Valida stock de todas las líneas, descuenta inventario y registra la factura en estado pending.
// @Description  Todo o nada: si una línea no tiene stock suficiente no se modifica nada.
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBillRequest  true  "Líneas (product_id, quantity)"
// @Success      201   {object}  dto.CreateBillResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/billing [post]
func (h *BillingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBillRequest
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.create.CreateBill(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateBillResponse{
		Message: "Bill created successfully",
		Bill:    *out,
	})
}

// List godoc
// @Summary      Listar facturas
// @Description  Un usuario sin rol manager solo ve sus propias facturas.
// @Tags         billing
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "pending | completed | cancelled"
// @Param        user_id    query  int     false  "Solo managers"
// @Param        date_from  query  string  false  "YYYY-MM-DD"
// @Param        date_to    query  string  false  "YYYY-MM-DD (inclusivo)"
// @Param        page       query  int     false  "Página"  default(1)
// @Param        limit      query  int     false  "Límite"  default(20)
// @Success      200  {object}  dto.BillListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/billing [get]
func (h *BillingHandler) List(c *fiber.Ctx) error {
	in := dto.BillListRequest{
		PageRequest: dto.PageRequest{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 20)},
		Status:      c.Query("status"),
		UserID:      int64(c.QueryInt("user_id", 0)),
		DateFrom:    c.Query("date_from"),
		DateTo:      c.Query("date_to"),
	}
	out, err := h.query.List(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura con sus líneas
// @Tags         billing
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {object}  dto.BillResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/billing/{id} [get]
func (h *BillingHandler) GetByID(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ID", "id debe ser un entero positivo")
	}
	out, err := h.query.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la factura
// @Description  pending -> cancelled devuelve el stock. Los estados completed y cancelled son finales.
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la factura"
// @Param        body  body  dto.UpdateBillStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.UpdateBillStatusResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/billing/{id}/status [patch]
func (h *BillingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ID", "id debe ser un entero positivo")
	}
	var in dto.UpdateBillStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.status.UpdateStatus(c.UserContext(), actorFrom(c), id, in.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.UpdateBillStatusResponse{
		Message: "Bill status updated successfully",
		Bill:    *out,
	})
}

// DownloadPDF godoc
// @Summary      Comprobante PDF de la factura
// @Tags         billing
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/billing/{id}/pdf [get]
func (h *BillingHandler) DownloadPDF(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ID", "id debe ser un entero positivo")
	}
	pdf, filename, err := h.pdf.DownloadBillPDF(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}
