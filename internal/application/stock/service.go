package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/costing"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// Service es el procesador de movimientos: el único camino por el que cambian
// los saldos de una fila de stock. Cada movimiento bloquea la fila
// (SELECT FOR UPDATE), verifica no-negatividad del bucket, actualiza el costo
// promedio si es entrada, asienta el movimiento en el libro y deja el evento
// contable en el outbox, todo dentro de una misma transacción.
type Service struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	costScale    int32
}

// NewService construye el procesador. costScale es la cantidad de decimales
// de la moneda (2 para centavos).
func NewService(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	costScale int32,
) *Service {
	return &Service{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		costScale:    costScale,
	}
}

// ApplyMovementInput es la entrada para aplicar un movimiento al libro.
// Quantity lleva el signo de la dirección del tipo (RECEIPT positiva, SALE
// negativa, ADJUSTMENT cualquiera, nunca cero). UnitCost es obligatorio en
// entradas; en salidas se ignora y se asienta el promedio vigente de la fila.
type ApplyMovementInput struct {
	ProductID  string
	LocationID string
	Ownership  entity.OwnershipStatus // vacío = OWNED
	Kind       entity.MovementKind
	Bucket     entity.Bucket // vacío = bucket por defecto del tipo
	Quantity   decimal.Decimal
	UnitCost   *decimal.Decimal
	RefType    string
	RefID      string
	Note       string
	ActorID    string
}

// ApplyMovementResult devuelve el movimiento asentado y la fila resultante.
type ApplyMovementResult struct {
	Movement *entity.Movement
	Record   *entity.StockRecord
}

// ApplyMovement valida la entrada, verifica maestros fuera de la transacción
// y aplica el movimiento dentro de una transacción nueva.
func (s *Service) ApplyMovement(ctx context.Context, input ApplyMovementInput) (*ApplyMovementResult, error) {
	input, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: input.ProductID}
	}
	if err := s.checkLocation(input.LocationID, input.Kind); err != nil {
		return nil, err
	}

	now := time.Now()
	var result *ApplyMovementResult
	err = s.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		r, err := s.ApplyInTx(stockRepo, movRepo, outboxRepo, product, input, now)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyInTx aplica el movimiento usando los repositorios del caller (misma
// transacción). Los casos de uso de recepciones, ensamble y traslados lo
// invocan para componer varios movimientos en un solo commit. La entrada debe
// venir ya validada con los defaults resueltos.
func (s *Service) ApplyInTx(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
	product *entity.Product,
	input ApplyMovementInput,
	now time.Time,
) (*ApplyMovementResult, error) {
	key := entity.StockKey{ProductID: input.ProductID, LocationID: input.LocationID, Ownership: input.Ownership}
	rec, err := stockRepo.GetForUpdate(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = newRecord(key, product, now)
	}

	qty := input.Quantity
	unitCost := rec.AverageCost
	if qty.GreaterThan(decimal.Zero) {
		if input.UnitCost != nil {
			unitCost = *input.UnitCost
		}
		rec.AverageCost = costing.NextAverageCost(rec.OnHand, rec.AverageCost, qty, unitCost, s.costScale)
		rec.LastCost = unitCost
	} else {
		// Salida: el bucket nunca queda negativo y el costo no se mueve.
		need := qty.Neg()
		available := rec.BucketQty(input.Bucket)
		if available.LessThan(need) {
			return nil, &domain.InsufficientStockError{
				ProductID:  input.ProductID,
				LocationID: input.LocationID,
				Ownership:  string(input.Ownership),
				Bucket:     string(input.Bucket),
				Requested:  need,
				Available:  available,
			}
		}
	}

	rec.OnHand = rec.OnHand.Add(qty)
	rec.AddToBucket(input.Bucket, qty)
	switch input.Kind {
	case entity.MovementReceipt, entity.MovementTransferIn, entity.MovementAssemblyProduce, entity.MovementSalesReturn:
		t := now
		rec.LastReceivedAt = &t
	case entity.MovementSale:
		t := now
		rec.LastSoldAt = &t
	}
	rec.UpdatedAt = now
	if err := stockRepo.Upsert(rec); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ID:         uuid.NewString(),
		ProductID:  input.ProductID,
		LocationID: input.LocationID,
		Ownership:  input.Ownership,
		Kind:       input.Kind,
		Bucket:     input.Bucket,
		Quantity:   qty,
		UnitCost:   unitCost,
		TotalCost:  qty.Mul(unitCost),
		RefType:    input.RefType,
		RefID:      input.RefID,
		Note:       input.Note,
		OccurredAt: now,
		CreatedAt:  now,
		CreatedBy:  input.ActorID,
	}
	if err := movRepo.Append(mov); err != nil {
		return nil, err
	}

	env, err := event.NewMovementApplied(mov, rec.StockValue(), now)
	if err != nil {
		return nil, err
	}
	if err := outboxRepo.Append(env); err != nil {
		return nil, err
	}

	snapshot := *rec
	return &ApplyMovementResult{Movement: mov, Record: &snapshot}, nil
}

// validate normaliza defaults (ownership, bucket) y verifica que cantidad,
// signo y costo sean coherentes con el tipo de movimiento.
func (s *Service) validate(input ApplyMovementInput) (ApplyMovementInput, error) {
	if input.ProductID == "" {
		return input, &domain.ValidationError{Field: "product_id", Reason: "obligatorio"}
	}
	if input.LocationID == "" {
		return input, &domain.ValidationError{Field: "location_id", Reason: "obligatorio"}
	}
	if input.Ownership == "" {
		input.Ownership = entity.OwnershipOwned
	}
	if !input.Ownership.Valid() {
		return input, &domain.ValidationError{Field: "ownership", Reason: "valor desconocido"}
	}
	if !input.Kind.Valid() {
		return input, &domain.ValidationError{Field: "kind", Reason: "tipo de movimiento desconocido"}
	}
	if input.Bucket == "" {
		input.Bucket = input.Kind.DefaultBucket()
	}
	if !input.Bucket.Valid() {
		return input, &domain.ValidationError{Field: "bucket", Reason: "bucket desconocido"}
	}
	if input.Kind == entity.MovementAssemblyConsume && input.Bucket != entity.BucketAllocated {
		return input, &domain.ValidationError{Field: "bucket", Reason: "el consumo de ensamble siempre sale de ALLOCATED"}
	}
	if input.Quantity.IsZero() {
		return input, &domain.ValidationError{Field: "quantity", Reason: "no puede ser cero"}
	}
	switch input.Kind.Direction() {
	case 1:
		if input.Quantity.LessThanOrEqual(decimal.Zero) {
			return input, &domain.ValidationError{Field: "quantity", Reason: "las entradas llevan cantidad positiva"}
		}
		if input.UnitCost == nil || input.UnitCost.LessThan(decimal.Zero) {
			return input, &domain.ValidationError{Field: "unit_cost", Reason: "obligatorio y no negativo en entradas"}
		}
	case -1:
		if input.Quantity.GreaterThanOrEqual(decimal.Zero) {
			return input, &domain.ValidationError{Field: "quantity", Reason: "las salidas llevan cantidad negativa"}
		}
	default:
		// ADJUSTMENT admite ambos signos; el costo solo aplica al positivo.
		if input.Quantity.GreaterThan(decimal.Zero) && input.UnitCost != nil && input.UnitCost.LessThan(decimal.Zero) {
			return input, &domain.ValidationError{Field: "unit_cost", Reason: "no puede ser negativo"}
		}
	}
	return input, nil
}

// checkLocation valida que la ubicación exista y tenga habilitada la
// operación: SALE exige una ubicación que venda, RECEIPT una que reciba.
func (s *Service) checkLocation(locationID string, kind entity.MovementKind) error {
	loc, err := s.locationRepo.GetByID(locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return &domain.ReferenceNotFoundError{Kind: "ubicación", ID: locationID}
	}
	switch kind {
	case entity.MovementSale:
		if !loc.Sellable {
			return fmt.Errorf("%w: %s no despacha ventas", domain.ErrLocationNotConfigured, loc.Code)
		}
	case entity.MovementReceipt:
		if !loc.Purchasable {
			return fmt.Errorf("%w: %s no recibe mercancía", domain.ErrLocationNotConfigured, loc.Code)
		}
	}
	return nil
}

// newRecord crea la fila de stock en cero para la clave, sembrando el promedio
// con el costo por defecto del producto.
func newRecord(key entity.StockKey, product *entity.Product, now time.Time) *entity.StockRecord {
	return &entity.StockRecord{
		ProductID:   key.ProductID,
		LocationID:  key.LocationID,
		Ownership:   key.Ownership,
		OnHand:      decimal.Zero,
		Sellable:    decimal.Zero,
		NonSellable: decimal.Zero,
		Reserved:    decimal.Zero,
		Allocated:   decimal.Zero,
		AverageCost: product.DefaultCost,
		LastCost:    product.DefaultCost,
		UpdatedAt:   now,
	}
}
