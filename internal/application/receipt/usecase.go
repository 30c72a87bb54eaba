package receipt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/costing"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// RefTypePurchaseOrder marca recepciones que nacen de una orden de compra y
// generan cuenta por pagar al confirmarse.
const RefTypePurchaseOrder = "purchase_order"

// UseCase gestiona recepciones de mercancía: borradores editables y una
// confirmación transaccional que asienta un movimiento RECEIPT por línea.
type UseCase struct {
	txRunner        TxRunner
	stock           StockApplier
	receiptRepo     repository.GoodsReceiptRepository
	productRepo     repository.ProductRepository
	locationRepo    repository.LocationRepository
	costScale       int32
	payableTermDays int
}

// NewUseCase construye el caso de uso de recepciones. payableTermDays es el
// plazo de la cuenta por pagar que nace al confirmar una recepción de compra.
func NewUseCase(
	txRunner TxRunner,
	stockApplier StockApplier,
	receiptRepo repository.GoodsReceiptRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	costScale int32,
	payableTermDays int,
) *UseCase {
	return &UseCase{
		txRunner:        txRunner,
		stock:           stockApplier,
		receiptRepo:     receiptRepo,
		productRepo:     productRepo,
		locationRepo:    locationRepo,
		costScale:       costScale,
		payableTermDays: payableTermDays,
	}
}

// LineInput es una línea de recepción: producto, cantidad positiva y costo
// unitario no negativo.
type LineInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// CreateDraftInput entrada para crear una recepción en DRAFT. LocationID
// puede quedar vacío hasta antes de confirmar; las líneas pueden completarse
// después con UpdateDraft.
type CreateDraftInput struct {
	Number     string
	LocationID string
	SupplierID string
	RefType    string
	RefID      string
	Note       string
	Lines      []LineInput
	ActorID    string
}

// CreateDraft crea la recepción en DRAFT validando maestros y líneas.
func (uc *UseCase) CreateDraft(ctx context.Context, input CreateDraftInput) (*entity.GoodsReceipt, error) {
	if input.LocationID != "" {
		loc, err := uc.locationRepo.GetByID(input.LocationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "ubicación", ID: input.LocationID}
		}
	}
	lines, err := uc.buildLines(input.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r := &entity.GoodsReceipt{
		ID:         uuid.NewString(),
		Number:     input.Number,
		LocationID: input.LocationID,
		SupplierID: input.SupplierID,
		RefType:    input.RefType,
		RefID:      input.RefID,
		Status:     entity.ReceiptDraft,
		Note:       input.Note,
		CreatedBy:  input.ActorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if r.Number == "" {
		r.Number = "GR-" + strings.ToUpper(r.ID[:8])
	}
	for i := range lines {
		lines[i].ReceiptID = r.ID
	}
	r.Lines = lines

	if err := uc.receiptRepo.Create(r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateDraftInput campos editables mientras la recepción sigue en DRAFT.
// Lines no nil reemplaza todas las líneas.
type UpdateDraftInput struct {
	LocationID *string
	SupplierID *string
	RefType    *string
	RefID      *string
	Note       *string
	Lines      []LineInput
}

// UpdateDraft edita una recepción en DRAFT. Una recepción confirmada es inmutable.
func (uc *UseCase) UpdateDraft(ctx context.Context, receiptID string, input UpdateDraftInput) (*entity.GoodsReceipt, error) {
	r, err := uc.receiptRepo.GetByID(receiptID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	if r.Status != entity.ReceiptDraft {
		return nil, &domain.InvalidTransitionError{
			Entity: "recepción", ID: r.ID,
			From: string(r.Status), To: string(entity.ReceiptDraft),
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
		r.LocationID = *input.LocationID
	}
	if input.SupplierID != nil {
		r.SupplierID = *input.SupplierID
	}
	if input.RefType != nil {
		r.RefType = *input.RefType
	}
	if input.RefID != nil {
		r.RefID = *input.RefID
	}
	if input.Note != nil {
		r.Note = *input.Note
	}
	if input.Lines != nil {
		lines, err := uc.buildLines(input.Lines)
		if err != nil {
			return nil, err
		}
		for i := range lines {
			lines[i].ReceiptID = r.ID
		}
		r.Lines = lines
	}
	r.UpdatedAt = time.Now()

	if err := uc.receiptRepo.Update(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Confirm asienta la recepción: un movimiento RECEIPT por línea (entrada a
// SELLABLE al costo de la línea) y el documento pasa a CONFIRMED, todo en una
// transacción. Si la recepción viene de una orden de compra con proveedor,
// deja además el evento PayableDue en el outbox del mismo commit. Confirmar
// dos veces retorna ErrInvalidTransition.
func (uc *UseCase) Confirm(ctx context.Context, receiptID, actorID string) (*entity.GoodsReceipt, error) {
	// Validación fuera de la transacción; el estado se re-verifica adentro
	// con el documento bloqueado.
	r, err := uc.receiptRepo.GetByID(receiptID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	if r.Status != entity.ReceiptDraft {
		return nil, confirmNotAllowed(r)
	}
	if len(r.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "la recepción no tiene líneas"}
	}
	if r.LocationID == "" {
		return nil, fmt.Errorf("%w: la recepción no tiene ubicación", domain.ErrLocationNotConfigured)
	}
	loc, err := uc.locationRepo.GetByID(r.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "ubicación", ID: r.LocationID}
	}
	if !loc.Purchasable {
		return nil, fmt.Errorf("%w: %s no recibe mercancía", domain.ErrLocationNotConfigured, loc.Code)
	}
	products, err := uc.fetchProducts(r)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var updated *entity.GoodsReceipt
	err = uc.txRunner.RunReceipt(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
		receiptRepo repository.GoodsReceiptRepository,
	) error {
		doc, err := receiptRepo.GetForUpdate(receiptID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.Status != entity.ReceiptDraft {
			return confirmNotAllowed(doc)
		}

		for _, ln := range doc.Lines {
			cost := ln.UnitCost
			if _, err := uc.stock.ApplyInTx(stockRepo, movRepo, outboxRepo, products[ln.ProductID], stock.ApplyMovementInput{
				ProductID:  ln.ProductID,
				LocationID: doc.LocationID,
				Ownership:  entity.OwnershipOwned,
				Kind:       entity.MovementReceipt,
				Bucket:     entity.BucketSellable,
				Quantity:   ln.Quantity,
				UnitCost:   &cost,
				RefType:    entity.RefTypeGoodsReceipt,
				RefID:      doc.ID,
				ActorID:    actorID,
			}, now); err != nil {
				return err
			}
		}

		doc.Status = entity.ReceiptConfirmed
		doc.ReceivedBy = actorID
		doc.ReceivedAt = &now
		doc.UpdatedAt = now

		if doc.RefType == RefTypePurchaseOrder && doc.SupplierID != "" {
			amount := decimal.Zero
			for _, ln := range doc.Lines {
				amount = amount.Add(ln.Quantity.Mul(ln.UnitCost))
			}
			amount = costing.Round(amount, uc.costScale)
			due := now.AddDate(0, 0, uc.payableTermDays)
			env, err := event.NewPayableDue(doc, amount, due, now)
			if err != nil {
				return err
			}
			if err := outboxRepo.Append(env); err != nil {
				return err
			}
		}

		if err := receiptRepo.Update(doc); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get devuelve una recepción con sus líneas.
func (uc *UseCase) Get(ctx context.Context, receiptID string) (*entity.GoodsReceipt, error) {
	r, err := uc.receiptRepo.GetByID(receiptID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// List lista recepciones, opcionalmente filtradas por estado.
func (uc *UseCase) List(ctx context.Context, status entity.GoodsReceiptStatus, limit, offset int) ([]*entity.GoodsReceipt, error) {
	if status != "" && status != entity.ReceiptDraft && status != entity.ReceiptConfirmed {
		return nil, &domain.ValidationError{Field: "status", Reason: "estado desconocido"}
	}
	return uc.receiptRepo.List(status, limit, offset)
}

// buildLines valida las líneas de entrada y las materializa con ID propio.
func (uc *UseCase) buildLines(inputs []LineInput) ([]entity.GoodsReceiptLine, error) {
	lines := make([]entity.GoodsReceiptLine, 0, len(inputs))
	for i, in := range inputs {
		if in.ProductID == "" {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("lines[%d].product_id", i), Reason: "obligatorio"}
		}
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Reason: "debe ser positiva"}
		}
		if in.UnitCost.LessThan(decimal.Zero) {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("lines[%d].unit_cost", i), Reason: "no puede ser negativo"}
		}
		p, err := uc.productRepo.GetByID(in.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: in.ProductID}
		}
		lines = append(lines, entity.GoodsReceiptLine{
			ID:        uuid.NewString(),
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitCost:  in.UnitCost,
		})
	}
	return lines, nil
}

func (uc *UseCase) fetchProducts(r *entity.GoodsReceipt) (map[string]*entity.Product, error) {
	products := make(map[string]*entity.Product, len(r.Lines))
	for _, ln := range r.Lines {
		if _, ok := products[ln.ProductID]; ok {
			continue
		}
		p, err := uc.productRepo.GetByID(ln.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: ln.ProductID}
		}
		products[ln.ProductID] = p
	}
	return products, nil
}

func confirmNotAllowed(r *entity.GoodsReceipt) error {
	return &domain.InvalidTransitionError{
		Entity: "recepción",
		ID:     r.ID,
		From:   string(r.Status),
		To:     string(entity.ReceiptConfirmed),
	}
}
