package assembly

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// UseCase maneja el ciclo de vida de las órdenes de ensamble:
// DRAFT -> RELEASED -> IN_PROGRESS -> COMPLETED, con CANCELLED alcanzable
// desde los tres primeros. Las transiciones que tocan stock (liberar,
// reportar producción, completar, cancelar) corren en una transacción que
// bloquea primero la orden y luego las filas de stock en orden estable.
type UseCase struct {
	txRunner     TxRunner
	stock        StockApplier
	orderRepo    repository.AssemblyOrderRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	bomRepo      repository.BOMRepository
	costScale    int32
}

// NewUseCase construye el caso de uso de ensamble.
func NewUseCase(
	txRunner TxRunner,
	stockApplier StockApplier,
	orderRepo repository.AssemblyOrderRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	bomRepo repository.BOMRepository,
	costScale int32,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		stock:        stockApplier,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		bomRepo:      bomRepo,
		costScale:    costScale,
	}
}

// CreateOrderInput entrada para crear una orden en DRAFT.
// BOMID vacío usa el BOM del producto; LocationID puede quedar vacío hasta
// antes de liberar.
type CreateOrderInput struct {
	Number     string
	ProductID  string
	BOMID      string
	LocationID string
	Ownership  entity.OwnershipStatus
	OrderedQty decimal.Decimal
	Note       string
	ActorID    string
}

// CreateOrder crea la orden en DRAFT congelando una copia de las líneas del
// BOM con el plan de consumo (PlannedQty = QtyPerUnit × OrderedQty).
func (uc *UseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*entity.AssemblyOrder, error) {
	if input.ProductID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Reason: "obligatorio"}
	}
	if !input.OrderedQty.GreaterThan(decimal.Zero) {
		return nil, &domain.ValidationError{Field: "ordered_qty", Reason: "debe ser positiva"}
	}
	if input.Ownership == "" {
		input.Ownership = entity.OwnershipOwned
	}
	if !input.Ownership.Valid() {
		return nil, &domain.ValidationError{Field: "ownership", Reason: "valor desconocido"}
	}

	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: input.ProductID}
	}

	bom, err := uc.resolveBOM(product, input.BOMID)
	if err != nil {
		return nil, err
	}

	if input.LocationID != "" {
		loc, err := uc.locationRepo.GetByID(input.LocationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "ubicación", ID: input.LocationID}
		}
	}

	now := time.Now()
	order := &entity.AssemblyOrder{
		ID:          uuid.NewString(),
		Number:      input.Number,
		ProductID:   input.ProductID,
		BOMID:       bom.ID,
		LocationID:  input.LocationID,
		Ownership:   input.Ownership,
		OrderedQty:  input.OrderedQty,
		ProducedQty: decimal.Zero,
		Status:      entity.AssemblyDraft,
		Note:        input.Note,
		CreatedBy:   input.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if order.Number == "" {
		order.Number = "AO-" + strings.ToUpper(order.ID[:8])
	}
	order.Lines = deriveLines(order.ID, bom, input.OrderedQty)

	if err := uc.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateDraftInput campos editables mientras la orden sigue en DRAFT.
// Punteros nil dejan el campo como está.
type UpdateDraftInput struct {
	LocationID *string
	OrderedQty *decimal.Decimal
	Note       *string
}

// UpdateDraft edita una orden en DRAFT. Si cambia la cantidad se rederivan
// las PlannedQty de las líneas; después de liberar la orden ya no se edita.
func (uc *UseCase) UpdateDraft(ctx context.Context, orderID string, input UpdateDraftInput) (*entity.AssemblyOrder, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.Status != entity.AssemblyDraft {
		return nil, &domain.InvalidTransitionError{
			Entity: "orden de ensamble", ID: order.ID,
			From: string(order.Status), To: string(entity.AssemblyDraft),
		}
	}

	if input.LocationID != nil {
		if *input.LocationID != "" {
			loc, err := uc.locationRepo.GetByID(*input.LocationID)
			if err != nil {
				return nil, err
			}
			if loc == nil {
				return nil, &domain.ReferenceNotFoundError{Kind: "ubicación", ID: *input.LocationID}
			}
		}
		order.LocationID = *input.LocationID
	}
	if input.OrderedQty != nil {
		if !input.OrderedQty.GreaterThan(decimal.Zero) {
			return nil, &domain.ValidationError{Field: "ordered_qty", Reason: "debe ser positiva"}
		}
		order.OrderedQty = *input.OrderedQty
		for i := range order.Lines {
			order.Lines[i].PlannedQty = order.Lines[i].QtyPerUnit.Mul(order.OrderedQty)
		}
	}
	if input.Note != nil {
		order.Note = *input.Note
	}
	order.UpdatedAt = time.Now()

	if err := uc.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Get devuelve una orden con sus líneas.
func (uc *UseCase) Get(ctx context.Context, orderID string) (*entity.AssemblyOrder, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// List lista órdenes, opcionalmente filtradas por estado.
func (uc *UseCase) List(ctx context.Context, status entity.AssemblyOrderStatus, limit, offset int) ([]*entity.AssemblyOrder, error) {
	if status != "" && !isKnownStatus(status) {
		return nil, &domain.ValidationError{Field: "status", Reason: "estado desconocido"}
	}
	return uc.orderRepo.List(status, limit, offset)
}

// resolveBOM carga el BOM pedido o el del producto, y exige que tenga líneas.
func (uc *UseCase) resolveBOM(product *entity.Product, bomID string) (*entity.BillOfMaterials, error) {
	var bom *entity.BillOfMaterials
	var err error
	switch {
	case bomID != "":
		bom, err = uc.bomRepo.GetByID(bomID)
	case product.BOMID != "":
		bom, err = uc.bomRepo.GetByID(product.BOMID)
	default:
		bom, err = uc.bomRepo.GetByProduct(product.ID)
	}
	if err != nil {
		return nil, err
	}
	if bom == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "BOM del producto", ID: product.ID}
	}
	if len(bom.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "bom_id", Reason: "el BOM no tiene componentes"}
	}
	return bom, nil
}

func deriveLines(orderID string, bom *entity.BillOfMaterials, orderedQty decimal.Decimal) []entity.AssemblyOrderLine {
	lines := make([]entity.AssemblyOrderLine, 0, len(bom.Lines))
	for _, bl := range bom.Lines {
		lines = append(lines, entity.AssemblyOrderLine{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			ComponentID: bl.ComponentID,
			QtyPerUnit:  bl.QtyPerUnit,
			PlannedQty:  bl.QtyPerUnit.Mul(orderedQty),
			ConsumedQty: decimal.Zero,
		})
	}
	return lines
}

func isKnownStatus(s entity.AssemblyOrderStatus) bool {
	switch s {
	case entity.AssemblyDraft, entity.AssemblyReleased, entity.AssemblyInProgress,
		entity.AssemblyCompleted, entity.AssemblyCancelled:
		return true
	}
	return false
}
