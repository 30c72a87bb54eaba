package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// StockHandler maneja movimientos, traslados, reservas y consultas de stock
// (protegido).
type StockHandler struct {
	svc     *stock.Service
	queries *stock.Queries
}

// NewStockHandler construye el handler.
func NewStockHandler(svc *stock.Service, queries *stock.Queries) *StockHandler {
	return &StockHandler{svc: svc, queries: queries}
}

// ApplyMovement godoc
// @Summary      Aplicar un movimiento de stock
// @Description  Asienta el movimiento en el libro, actualiza los saldos de la
// @Description  fila y deja el evento contable en el outbox, todo en una
// @Description  transacción.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "product_id, location_id, kind, quantity con signo, unit_cost (entradas)"
// @Success      201   {object}  dto.ApplyMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) ApplyMovement(c *fiber.Ctx) error {
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.svc.ApplyMovement(c.Context(), stock.ApplyMovementInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Ownership:  entity.OwnershipStatus(in.Ownership),
		Kind:       entity.MovementKind(in.Kind),
		Bucket:     entity.Bucket(in.Bucket),
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		RefType:    in.RefType,
		RefID:      in.RefID,
		Note:       in.Note,
		ActorID:    GetUserID(c),
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(applyResultDTO(res))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Description  Genera el par TRANSFER_OUT/TRANSFER_IN con el mismo
// @Description  transfer_id; la entrada hereda el costo promedio del origen.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_location_id, to_location_id, quantity positiva"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.svc.Transfer(c.Context(), stock.TransferInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Ownership:      entity.OwnershipStatus(in.Ownership),
		Quantity:       in.Quantity,
		Note:           in.Note,
		ActorID:        GetUserID(c),
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		TransferID: res.TransferID,
		Out:        applyResultDTO(res.Out),
		In:         applyResultDTO(res.In),
	})
}

// Reserve godoc
// @Summary      Reservar stock vendible
// @Description  Mueve cantidad de sellable a reserved sin asiento en el libro.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "product_id, location_id, quantity positiva"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reservations [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	return h.bucketMove(c, h.svc.Reserve)
}

// Release godoc
// @Summary      Liberar una reserva
// @Description  Devuelve cantidad de reserved a sellable sin asiento en el libro.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "product_id, location_id, quantity positiva"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reservations/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	return h.bucketMove(c, h.svc.Unreserve)
}

func (h *StockHandler) bucketMove(c *fiber.Ctx, op func(ctx context.Context, input stock.ReserveInput) (*entity.StockRecord, error)) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	rec, err := op(c.Context(), stock.ReserveInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Ownership:  entity.OwnershipStatus(in.Ownership),
		Quantity:   in.Quantity,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(recordDTO(rec))
}

// GetRecord godoc
// @Summary      Obtener una fila de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID   path   string  true   "ID del producto"
// @Param        locationID  path   string  true   "ID de la ubicación"
// @Param        ownership   query  string  false  "OWNED o CONSIGNMENT"  default(OWNED)
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/records/{productID}/{locationID} [get]
func (h *StockHandler) GetRecord(c *fiber.Ctx) error {
	key := entity.StockKey{
		ProductID:  c.Params("productID"),
		LocationID: c.Params("locationID"),
		Ownership:  entity.OwnershipStatus(c.Query("ownership")),
	}
	rec, err := h.queries.GetRecord(c.Context(), key)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(recordDTO(rec))
}

// ListRecords godoc
// @Summary      Listar filas de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filas de una ubicación"
// @Param        product_id   query  string  false  "Filas de un producto en todas las ubicaciones"
// @Param        limit        query  int     false  "Límite"   default(20)
// @Param        offset       query  int     false  "Offset"   default(0)
// @Success      200  {object}  dto.StockRecordListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/records [get]
func (h *StockHandler) ListRecords(c *fiber.Ctx) error {
	limit, offset := pageParams(c)

	if locationID := c.Query("location_id"); locationID != "" {
		recs, err := h.queries.ListRecordsByLocation(c.Context(), locationID, limit, offset)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(recordListDTO(recs, limit, offset))
	}
	if productID := c.Query("product_id"); productID != "" {
		recs, err := h.queries.ListRecordsByProduct(c.Context(), productID)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(recordListDTO(recs, limit, 0))
	}
	return badRequest(c, "VALIDATION", "se requiere location_id o product_id")
}

// GetMovement godoc
// @Summary      Obtener un asiento del libro por ID
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id es requerido")
	}
	mov, err := h.queries.GetMovement(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(movementDTO(mov))
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Description  Filtra por producto o ubicación con rango de fechas opcional,
// @Description  o por documento de referencia (ref_type + ref_id).
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Libro de un producto"
// @Param        location_id  query  string  false  "Libro de una ubicación"
// @Param        ref_type     query  string  false  "Tipo del documento de referencia"
// @Param        ref_id       query  string  false  "ID del documento de referencia"
// @Param        from         query  string  false  "Fecha inicial RFC3339"
// @Param        to           query  string  false  "Fecha final RFC3339"
// @Param        limit        query  int     false  "Límite"   default(20)
// @Param        offset       query  int     false  "Offset"   default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	limit, offset := pageParams(c)

	if refType, refID := c.Query("ref_type"), c.Query("ref_id"); refType != "" && refID != "" {
		movs, err := h.queries.ListMovementsByReference(c.Context(), refType, refID)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(movementListDTO(movs, limit, 0))
	}

	from, err := timeParam(c, "from")
	if err != nil {
		return badRequest(c, "VALIDATION", "from debe ser RFC3339")
	}
	to, err := timeParam(c, "to")
	if err != nil {
		return badRequest(c, "VALIDATION", "to debe ser RFC3339")
	}

	if productID := c.Query("product_id"); productID != "" {
		movs, err := h.queries.ListMovementsByProduct(c.Context(), productID, from, to, limit, offset)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(movementListDTO(movs, limit, offset))
	}
	if locationID := c.Query("location_id"); locationID != "" {
		movs, err := h.queries.ListMovementsByLocation(c.Context(), locationID, from, to, limit, offset)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(movementListDTO(movs, limit, offset))
	}
	return badRequest(c, "VALIDATION", "se requiere product_id, location_id o ref_type+ref_id")
}

// timeParam parsea un query param de fecha RFC3339; nil si está ausente.
func timeParam(c *fiber.Ctx, name string) (*time.Time, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
