package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/application/receipt"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// ReceiptHandler maneja las recepciones de mercancía (protegido).
type ReceiptHandler struct {
	uc *receipt.UseCase
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *receipt.UseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc}
}

// Create godoc
// @Summary      Crear recepción en borrador
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateGoodsReceiptRequest  true  "Cabecera y líneas; supplier_id + ref_type purchase_order generan cuenta por pagar al confirmar"
// @Success      201   {object}  dto.GoodsReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *ReceiptHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateGoodsReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	rec, err := h.uc.CreateDraft(c.Context(), receipt.CreateDraftInput{
		Number:     in.Number,
		LocationID: in.LocationID,
		SupplierID: in.SupplierID,
		RefType:    in.RefType,
		RefID:      in.RefID,
		Note:       in.Note,
		Lines:      lineInputs(in.Lines),
		ActorID:    GetUserID(c),
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(receiptDTO(rec))
}

// Get godoc
// @Summary      Obtener recepción por ID
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.GoodsReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	rec, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(receiptDTO(rec))
}

// List godoc
// @Summary      Listar recepciones
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT o CONFIRMED"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200     {object}  dto.GoodsReceiptListResponse
// @Router       /api/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	status := entity.GoodsReceiptStatus(c.Query("status"))
	recs, err := h.uc.List(c.Context(), status, limit, offset)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(receiptListDTO(recs, limit, offset))
}

// Update godoc
// @Summary      Editar una recepción en borrador
// @Description  Lines presente reemplaza todas las líneas.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la recepción"
// @Param        body  body  dto.UpdateGoodsReceiptRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.GoodsReceiptResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [put]
func (h *ReceiptHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	var in dto.UpdateGoodsReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	rec, err := h.uc.UpdateDraft(c.Context(), id, receipt.UpdateDraftInput{
		LocationID: in.LocationID,
		SupplierID: in.SupplierID,
		RefType:    in.RefType,
		RefID:      in.RefID,
		Note:       in.Note,
		Lines:      lineInputs(in.Lines),
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(receiptDTO(rec))
}

// Confirm godoc
// @Summary      Confirmar una recepción
// @Description  Genera un movimiento RECEIPT por línea y, si la recepción
// @Description  viene de una orden de compra con proveedor, el evento de
// @Description  cuenta por pagar. Confirmar dos veces es transición inválida.
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.GoodsReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/confirm [post]
func (h *ReceiptHandler) Confirm(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	rec, err := h.uc.Confirm(c.Context(), id, GetUserID(c))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(receiptDTO(rec))
}

func lineInputs(lines []dto.GoodsReceiptLineRequest) []receipt.LineInput {
	if lines == nil {
		return nil
	}
	out := make([]receipt.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, receipt.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	return out
}
