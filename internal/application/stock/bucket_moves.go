package stock

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// BucketMove describe un traslado de cantidad entre dos buckets de una misma
// fila de stock. No toca OnHand ni el libro de movimientos: el total de la
// fila se conserva, solo cambia cómo está repartido.
type BucketMove struct {
	Key  entity.StockKey
	From entity.Bucket
	To   entity.Bucket
	Qty  decimal.Decimal // positiva
}

// ApplyBucketMoves bloquea las filas afectadas en orden estable de clave,
// valida que todos los buckets de origen alcancen y aplica los traslados.
// Si algún origen no alcanza no se escribe nada (todo o nada) y el error
// identifica el primer faltante. Devuelve las filas resultantes en orden de
// clave. Debe invocarse dentro de una transacción.
func ApplyBucketMoves(
	stockRepo repository.StockRecordRepository,
	moves []BucketMove,
	now time.Time,
) ([]*entity.StockRecord, error) {
	if len(moves) == 0 {
		return nil, nil
	}
	for _, m := range moves {
		if !m.From.Valid() || !m.To.Valid() || m.From == m.To {
			return nil, &domain.ValidationError{Field: "bucket", Reason: "traslado entre buckets inválido"}
		}
		if !m.Qty.GreaterThan(decimal.Zero) {
			return nil, &domain.ValidationError{Field: "quantity", Reason: "debe ser positiva"}
		}
	}

	// Orden estable de bloqueo: evita deadlocks entre operaciones que tocan
	// las mismas filas en distinto orden.
	keys := make([]entity.StockKey, 0, len(moves))
	seen := make(map[entity.StockKey]bool, len(moves))
	for _, m := range moves {
		if !seen[m.Key] {
			seen[m.Key] = true
			keys = append(keys, m.Key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	records := make(map[entity.StockKey]*entity.StockRecord, len(keys))
	for _, k := range keys {
		rec, err := stockRepo.GetForUpdate(k)
		if err != nil {
			return nil, err
		}
		records[k] = rec // puede ser nil: fila inexistente = saldo cero
	}

	// Validar y mutar primero en memoria; Upsert solo cuando todo pasó.
	for _, m := range moves {
		rec := records[m.Key]
		available := decimal.Zero
		if rec != nil {
			available = rec.BucketQty(m.From)
		}
		if available.LessThan(m.Qty) {
			return nil, &domain.InsufficientStockError{
				ProductID:  m.Key.ProductID,
				LocationID: m.Key.LocationID,
				Ownership:  string(m.Key.Ownership),
				Bucket:     string(m.From),
				Requested:  m.Qty,
				Available:  available,
			}
		}
		rec.AddToBucket(m.From, m.Qty.Neg())
		rec.AddToBucket(m.To, m.Qty)
		rec.UpdatedAt = now
	}

	out := make([]*entity.StockRecord, 0, len(keys))
	for _, k := range keys {
		if err := stockRepo.Upsert(records[k]); err != nil {
			return nil, err
		}
		out = append(out, records[k])
	}
	return out, nil
}

// ReserveInput identifica la fila y la cantidad a reservar o liberar.
type ReserveInput struct {
	ProductID  string
	LocationID string
	Ownership  entity.OwnershipStatus // vacío = OWNED
	Quantity   decimal.Decimal        // positiva
}

// Reserve aparta cantidad vendible para un pedido: SELLABLE -> RESERVED.
// No genera asiento en el libro, OnHand no cambia.
func (s *Service) Reserve(ctx context.Context, input ReserveInput) (*entity.StockRecord, error) {
	return s.moveBuckets(ctx, input, entity.BucketSellable, entity.BucketReserved)
}

// Unreserve devuelve una reserva al stock vendible: RESERVED -> SELLABLE.
func (s *Service) Unreserve(ctx context.Context, input ReserveInput) (*entity.StockRecord, error) {
	return s.moveBuckets(ctx, input, entity.BucketReserved, entity.BucketSellable)
}

func (s *Service) moveBuckets(ctx context.Context, input ReserveInput, from, to entity.Bucket) (*entity.StockRecord, error) {
	if input.ProductID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Reason: "obligatorio"}
	}
	if input.LocationID == "" {
		return nil, &domain.ValidationError{Field: "location_id", Reason: "obligatorio"}
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

	now := time.Now()
	var rec *entity.StockRecord
	err := s.txRunner.Run(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.OutboxRepository,
	) error {
		recs, err := ApplyBucketMoves(stockRepo, []BucketMove{{
			Key: entity.StockKey{
				ProductID:  input.ProductID,
				LocationID: input.LocationID,
				Ownership:  input.Ownership,
			},
			From: from,
			To:   to,
			Qty:  input.Quantity,
		}}, now)
		if err != nil {
			return err
		}
		rec = recs[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
