package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

const stockRecordColumns = `product_id, location_id, ownership, on_hand, sellable, non_sellable, reserved, allocated, average_cost, last_cost, last_received_at, last_sold_at, updated_at`

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador de filas de stock. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// Get obtiene la fila de stock de un producto en una ubicación bajo una
// propiedad. Devuelve (nil, nil) si no existe.
func (r *StockRecordRepo) Get(key entity.StockKey) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1 AND location_id = $2 AND ownership = $3`
	return r.getOne(query, key)
}

// GetForUpdate obtiene la fila y la bloquea en exclusiva hasta el fin de la
// transacción (SELECT ... FOR UPDATE). Devuelve (nil, nil) si no existe.
func (r *StockRecordRepo) GetForUpdate(key entity.StockKey) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1 AND location_id = $2 AND ownership = $3
		FOR UPDATE`
	return r.getOne(query, key)
}

func (r *StockRecordRepo) getOne(query string, key entity.StockKey) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := r.q.QueryRow(context.Background(), query, key.ProductID, key.LocationID, string(key.Ownership)).Scan(
		&s.ProductID, &s.LocationID, &s.Ownership, &s.OnHand, &s.Sellable, &s.NonSellable,
		&s.Reserved, &s.Allocated, &s.AverageCost, &s.LastCost,
		&s.LastReceivedAt, &s.LastSoldAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la fila completa de saldos y costos.
func (r *StockRecordRepo) Upsert(record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (` + stockRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (product_id, location_id, ownership)
		DO UPDATE SET
			on_hand = EXCLUDED.on_hand,
			sellable = EXCLUDED.sellable,
			non_sellable = EXCLUDED.non_sellable,
			reserved = EXCLUDED.reserved,
			allocated = EXCLUDED.allocated,
			average_cost = EXCLUDED.average_cost,
			last_cost = EXCLUDED.last_cost,
			last_received_at = EXCLUDED.last_received_at,
			last_sold_at = EXCLUDED.last_sold_at,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		record.ProductID, record.LocationID, string(record.Ownership),
		record.OnHand, record.Sellable, record.NonSellable, record.Reserved, record.Allocated,
		record.AverageCost, record.LastCost,
		record.LastReceivedAt, record.LastSoldAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock record: %w", err)
	}
	return nil
}

// ListByLocation lista las filas de stock de una ubicación con paginación.
func (r *StockRecordRepo) ListByLocation(locationID string, limit, offset int) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE location_id = $1
		ORDER BY product_id, ownership LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, locationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock by location: %w", err)
	}
	return scanStockRecords(rows)
}

// ListByProduct lista las filas de stock de un producto en todas las ubicaciones.
func (r *StockRecordRepo) ListByProduct(productID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1
		ORDER BY location_id, ownership`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock by product: %w", err)
	}
	return scanStockRecords(rows)
}

func scanStockRecords(rows pgx.Rows) ([]*entity.StockRecord, error) {
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.ProductID, &s.LocationID, &s.Ownership, &s.OnHand, &s.Sellable,
			&s.NonSellable, &s.Reserved, &s.Allocated, &s.AverageCost, &s.LastCost,
			&s.LastReceivedAt, &s.LastSoldAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
