package stock

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// Queries agrupa las lecturas sobre filas de stock y libro de movimientos.
// Son lecturas simples fuera de transacción.
type Queries struct {
	stockRepo repository.StockRecordRepository
	movRepo   repository.MovementRepository
}

// NewQueries construye las consultas de stock.
func NewQueries(stockRepo repository.StockRecordRepository, movRepo repository.MovementRepository) *Queries {
	return &Queries{stockRepo: stockRepo, movRepo: movRepo}
}

// GetRecord devuelve la fila de stock de la clave, ErrNotFound si nunca tuvo
// movimientos ni reservas.
func (q *Queries) GetRecord(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	if key.Ownership == "" {
		key.Ownership = entity.OwnershipOwned
	}
	rec, err := q.stockRepo.Get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListRecordsByLocation lista las filas de stock de una ubicación.
func (q *Queries) ListRecordsByLocation(ctx context.Context, locationID string, limit, offset int) ([]*entity.StockRecord, error) {
	return q.stockRepo.ListByLocation(locationID, limit, offset)
}

// ListRecordsByProduct lista las filas de stock de un producto en todas las ubicaciones.
func (q *Queries) ListRecordsByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	return q.stockRepo.ListByProduct(productID)
}

// GetMovement devuelve un asiento del libro por ID.
func (q *Queries) GetMovement(ctx context.Context, id string) (*entity.Movement, error) {
	mov, err := q.movRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}

// ListMovementsByProduct lista el libro de un producto, opcionalmente acotado en fechas.
func (q *Queries) ListMovementsByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return q.movRepo.ListByProduct(productID, from, to, limit, offset)
}

// ListMovementsByLocation lista el libro de una ubicación, opcionalmente acotado en fechas.
func (q *Queries) ListMovementsByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return q.movRepo.ListByLocation(locationID, from, to, limit, offset)
}

// ListMovementsByReference lista los asientos generados por un documento
// (recepción, orden de ensamble, traslado).
func (q *Queries) ListMovementsByReference(ctx context.Context, refType, refID string) ([]*entity.Movement, error) {
	return q.movRepo.ListByReference(refType, refID)
}
