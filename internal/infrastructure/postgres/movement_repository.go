package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, location_id, ownership, kind, bucket, quantity, unit_cost, total_cost, ref_type, ref_id, note, occurred_at, created_at, created_by`

// MovementRepo implementación del libro mayor de stock sobre PostgreSQL
// (usable con pool o tx). Solo inserta y lee: el libro no se modifica.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append persiste un asiento del libro mayor.
func (r *MovementRepo) Append(movement *entity.Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	createdBy := (*string)(nil)
	if movement.CreatedBy != "" {
		createdBy = &movement.CreatedBy
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.LocationID, string(movement.Ownership),
		string(movement.Kind), string(movement.Bucket),
		movement.Quantity, movement.UnitCost, movement.TotalCost,
		movement.RefType, movement.RefID, movement.Note,
		movement.OccurredAt, movement.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por ID.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE id = $1`
	var m entity.Movement
	var createdBy *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.ProductID, &m.LocationID, &m.Ownership, &m.Kind, &m.Bucket,
		&m.Quantity, &m.UnitCost, &m.TotalCost, &m.RefType, &m.RefID, &m.Note,
		&m.OccurredAt, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

// ListByProduct lista asientos de un producto en un rango de fechas.
func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.listByColumn("product_id", productID, from, to, limit, offset)
}

// ListByLocation lista asientos de una ubicación en un rango de fechas.
func (r *MovementRepo) ListByLocation(locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.listByColumn("location_id", locationID, from, to, limit, offset)
}

func (r *MovementRepo) listByColumn(column, value string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE ` + column + ` = $1`
	args := []any{value}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by %s: %w", column, err)
	}
	return scanMovements(rows)
}

// ListByReference lista los asientos generados por un documento (recepción,
// orden de ensamble, traslado), en orden de creación.
func (r *MovementRepo) ListByReference(refType, refID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE ref_type = $1 AND ref_id = $2
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.LocationID, &m.Ownership, &m.Kind, &m.Bucket,
			&m.Quantity, &m.UnitCost, &m.TotalCost, &m.RefType, &m.RefID, &m.Note,
			&m.OccurredAt, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
