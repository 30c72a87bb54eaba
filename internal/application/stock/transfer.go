package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// TransferInput traslada cantidad vendible de una ubicación a otra bajo la
// misma propiedad.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Ownership      entity.OwnershipStatus // vacío = OWNED
	Quantity       decimal.Decimal        // positiva
	Note           string
	ActorID        string
}

// TransferResult agrupa los dos movimientos generados por el traslado.
type TransferResult struct {
	TransferID string
	Out        *ApplyMovementResult
	In         *ApplyMovementResult
}

// Transfer mueve stock vendible entre ubicaciones en una sola transacción:
// TRANSFER_OUT en el origen y TRANSFER_IN en el destino al costo promedio del
// origen, de modo que el destino repondera su promedio con ese costo. Ambas
// filas se bloquean en orden estable antes de mutar.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.ProductID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Reason: "obligatorio"}
	}
	if input.FromLocationID == "" || input.ToLocationID == "" {
		return nil, &domain.ValidationError{Field: "from_location_id/to_location_id", Reason: "obligatorios"}
	}
	if input.FromLocationID == input.ToLocationID {
		return nil, &domain.ValidationError{Field: "to_location_id", Reason: "origen y destino no pueden ser iguales"}
	}
	if input.Ownership == "" {
		input.Ownership = entity.OwnershipOwned
	}
	if !input.Ownership.Valid() {
		return nil, &domain.ValidationError{Field: "ownership", Reason: "valor desconocido"}
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "debe ser positiva"}
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: input.ProductID}
	}
	for _, locID := range []string{input.FromLocationID, input.ToLocationID} {
		loc, err := s.locationRepo.GetByID(locID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "ubicación", ID: locID}
		}
	}

	now := time.Now()
	transferID := uuid.NewString()
	fromKey := entity.StockKey{ProductID: input.ProductID, LocationID: input.FromLocationID, Ownership: input.Ownership}
	toKey := entity.StockKey{ProductID: input.ProductID, LocationID: input.ToLocationID, Ownership: input.Ownership}

	var result *TransferResult
	err = s.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		// Pre-bloquea ambas filas en orden estable; los GetForUpdate de
		// ApplyInTx recaen sobre filas ya bloqueadas por esta transacción.
		keys := []entity.StockKey{fromKey, toKey}
		if keys[1].Less(keys[0]) {
			keys[0], keys[1] = keys[1], keys[0]
		}
		for _, k := range keys {
			if _, err := stockRepo.GetForUpdate(k); err != nil {
				return err
			}
		}

		outRes, err := s.ApplyInTx(stockRepo, movRepo, outboxRepo, product, ApplyMovementInput{
			ProductID:  input.ProductID,
			LocationID: input.FromLocationID,
			Ownership:  input.Ownership,
			Kind:       entity.MovementTransferOut,
			Bucket:     entity.BucketSellable,
			Quantity:   input.Quantity.Neg(),
			RefType:    entity.RefTypeTransfer,
			RefID:      transferID,
			Note:       input.Note,
			ActorID:    input.ActorID,
		}, now)
		if err != nil {
			return err
		}

		// El destino entra al costo promedio con el que salió el origen.
		cost := outRes.Movement.UnitCost
		inRes, err := s.ApplyInTx(stockRepo, movRepo, outboxRepo, product, ApplyMovementInput{
			ProductID:  input.ProductID,
			LocationID: input.ToLocationID,
			Ownership:  input.Ownership,
			Kind:       entity.MovementTransferIn,
			Bucket:     entity.BucketSellable,
			Quantity:   input.Quantity,
			UnitCost:   &cost,
			RefType:    entity.RefTypeTransfer,
			RefID:      transferID,
			Note:       input.Note,
			ActorID:    input.ActorID,
		}, now)
		if err != nil {
			return err
		}

		result = &TransferResult{TransferID: transferID, Out: outRes, In: inRes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
