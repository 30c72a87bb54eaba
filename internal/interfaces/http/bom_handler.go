package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/application/usecase"
)

// BOMHandler maneja las peticiones HTTP para listas de materiales (protegido).
type BOMHandler struct {
	uc *usecase.BOMUseCase
}

// NewBOMHandler construye el handler.
func NewBOMHandler(uc *usecase.BOMUseCase) *BOMHandler {
	return &BOMHandler{uc: uc}
}

// Create godoc
// @Summary      Crear lista de materiales
// @Description  Las listas son inmutables: para cambiar la receta se crea una
// @Description  nueva versión para el mismo producto.
// @Tags         boms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBOMRequest  true  "product_id, versión y líneas de componentes"
// @Success      201   {object}  dto.BOMResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/boms [post]
func (h *BOMHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBOMRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.ProductID == "" {
		return badRequest(c, "VALIDATION", "product_id es requerido")
	}
	if len(in.Lines) == 0 {
		return badRequest(c, "VALIDATION", "la lista debe tener al menos una línea")
	}
	out, err := h.uc.Create(in)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener lista de materiales por ID
// @Tags         boms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la lista"
// @Success      200  {object}  dto.BOMResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id} [get]
func (h *BOMHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	out, err := h.uc.GetByID(id)
	if err != nil {
		return domainError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "lista de materiales no encontrada"})
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar listas de materiales
// @Tags         boms
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto: devuelve la versión más reciente"
// @Param        limit       query  int     false  "Límite"   default(20)
// @Param        offset      query  int     false  "Offset"   default(0)
// @Success      200  {object}  dto.BOMListResponse
// @Router       /api/boms [get]
func (h *BOMHandler) List(c *fiber.Ctx) error {
	if productID := c.Query("product_id"); productID != "" {
		out, err := h.uc.GetByProduct(productID)
		if err != nil {
			return domainError(c, err)
		}
		items := []dto.BOMResponse{}
		if out != nil {
			items = append(items, *out)
		}
		return c.JSON(dto.BOMListResponse{Items: items, Page: dto.PageResponse{Limit: 1}})
	}

	limit, offset := pageParams(c)
	out, err := h.uc.List(limit, offset)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar lista de materiales
// @Description  Las órdenes existentes no se ven afectadas: congelan una copia
// @Description  de las líneas al crearse.
// @Tags         boms
// @Security     Bearer
// @Param        id   path  string  true  "ID de la lista"
// @Success      204  "Sin contenido"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id} [delete]
func (h *BOMHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	if err := h.uc.Delete(id); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
