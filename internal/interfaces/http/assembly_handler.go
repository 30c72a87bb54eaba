package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-engine/internal/application/assembly"
	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// AssemblyHandler maneja las órdenes de ensamble (protegido).
type AssemblyHandler struct {
	uc *assembly.UseCase
}

// NewAssemblyHandler construye el handler.
func NewAssemblyHandler(uc *assembly.UseCase) *AssemblyHandler {
	return &AssemblyHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de ensamble en borrador
// @Tags         assembly
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAssemblyOrderRequest  true  "product_id, ordered_qty; bom_id vacío usa el BOM del producto"
// @Success      201   {object}  dto.AssemblyOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assembly/orders [post]
func (h *AssemblyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAssemblyOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	order, err := h.uc.CreateOrder(c.Context(), assembly.CreateOrderInput{
		Number:     in.Number,
		ProductID:  in.ProductID,
		BOMID:      in.BOMID,
		LocationID: in.LocationID,
		Ownership:  entity.OwnershipStatus(in.Ownership),
		OrderedQty: in.OrderedQty,
		Note:       in.Note,
		ActorID:    GetUserID(c),
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(orderDTO(order))
}

// Get godoc
// @Summary      Obtener orden de ensamble por ID
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id} [get]
func (h *AssemblyHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	order, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(orderDTO(order))
}

// List godoc
// @Summary      Listar órdenes de ensamble
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT, RELEASED, IN_PROGRESS, COMPLETED o CANCELLED"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200     {object}  dto.AssemblyOrderListResponse
// @Router       /api/assembly/orders [get]
func (h *AssemblyHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	status := entity.AssemblyOrderStatus(c.Query("status"))
	orders, err := h.uc.List(c.Context(), status, limit, offset)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(orderListDTO(orders, limit, offset))
}

// Update godoc
// @Summary      Editar una orden en borrador
// @Tags         assembly
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.UpdateAssemblyOrderRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.AssemblyOrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id} [put]
func (h *AssemblyHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	var in dto.UpdateAssemblyOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	order, err := h.uc.UpdateDraft(c.Context(), id, assembly.UpdateDraftInput{
		LocationID: in.LocationID,
		OrderedQty: in.OrderedQty,
		Note:       in.Note,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(orderDTO(order))
}

// Release godoc
// @Summary      Liberar una orden
// @Description  Asigna los componentes de sellable a allocated, todo o nada.
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id}/release [post]
func (h *AssemblyHandler) Release(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Release)
}

// Start godoc
// @Summary      Iniciar producción de una orden liberada
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id}/start [post]
func (h *AssemblyHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Start)
}

// Report godoc
// @Summary      Reportar producción buena
// @Description  Consume componentes desde allocated y da entrada al producto
// @Description  terminado al costo total consumido dividido entre qty_good.
// @Tags         assembly
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReportProductionRequest  true  "qty_good positiva"
// @Success      200   {object}  dto.AssemblyOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id}/report [post]
func (h *AssemblyHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	var in dto.ReportProductionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	order, err := h.uc.Report(c.Context(), id, assembly.ReportInput{
		QtyGood: in.QtyGood,
		Note:    in.Note,
		ActorID: GetUserID(c),
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(orderDTO(order))
}

// Complete godoc
// @Summary      Completar una orden en curso
// @Description  Devuelve a sellable lo asignado no consumido y cierra la orden.
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id}/complete [post]
func (h *AssemblyHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Complete)
}

// Cancel godoc
// @Summary      Cancelar una orden
// @Description  Válido desde DRAFT, RELEASED o IN_PROGRESS; devuelve a
// @Description  sellable lo asignado no consumido.
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assembly/orders/{id}/cancel [post]
func (h *AssemblyHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Cancel)
}

func (h *AssemblyHandler) transition(c *fiber.Ctx, op func(ctx context.Context, orderID string) (*entity.AssemblyOrder, error)) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	order, err := op(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(orderDTO(order))
}
