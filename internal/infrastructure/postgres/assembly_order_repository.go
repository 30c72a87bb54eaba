package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.AssemblyOrderRepository = (*AssemblyOrderRepo)(nil)

const assemblyOrderColumns = `id, number, product_id, bom_id, location_id, ownership, ordered_qty, produced_qty, status, note, released_at, started_at, closed_at, created_by, created_at, updated_at`

// AssemblyOrderRepo implementación del puerto AssemblyOrderRepository sobre
// PostgreSQL (usable con pool o tx).
type AssemblyOrderRepo struct {
	q Querier
}

// NewAssemblyOrderRepository construye el adaptador de órdenes de ensamble. Pasar pool o tx (Querier).
func NewAssemblyOrderRepository(q Querier) *AssemblyOrderRepo {
	return &AssemblyOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *AssemblyOrderRepo) Create(order *entity.AssemblyOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO assembly_orders (` + assemblyOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		order.ID, order.Number, order.ProductID, order.BOMID, order.LocationID,
		string(order.Ownership), order.OrderedQty, order.ProducedQty, string(order.Status),
		order.Note, order.ReleasedAt, order.StartedAt, order.ClosedAt,
		order.CreatedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert assembly order: número duplicado: %w", err)
		}
		return fmt.Errorf("insert assembly order: %w", err)
	}
	return r.insertLines(ctx, order)
}

func (r *AssemblyOrderRepo) insertLines(ctx context.Context, order *entity.AssemblyOrder) error {
	for _, ln := range order.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO assembly_order_lines (id, order_id, component_id, qty_per_unit, planned_qty, consumed_qty)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ln.ID, order.ID, ln.ComponentID, ln.QtyPerUnit, ln.PlannedQty, ln.ConsumedQty,
		)
		if err != nil {
			return fmt.Errorf("insert assembly order line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas. Devuelve (nil, nil) si no existe.
func (r *AssemblyOrderRepo) GetByID(id string) (*entity.AssemblyOrder, error) {
	query := `
		SELECT ` + assemblyOrderColumns + `
		FROM assembly_orders WHERE id = $1`
	return r.getOne(query, id)
}

// GetForUpdate obtiene la orden bloqueando la cabecera (SELECT ... FOR UPDATE)
// para serializar transiciones concurrentes sobre el mismo documento.
func (r *AssemblyOrderRepo) GetForUpdate(id string) (*entity.AssemblyOrder, error) {
	query := `
		SELECT ` + assemblyOrderColumns + `
		FROM assembly_orders WHERE id = $1
		FOR UPDATE`
	return r.getOne(query, id)
}

func (r *AssemblyOrderRepo) getOne(query, id string) (*entity.AssemblyOrder, error) {
	var o entity.AssemblyOrder
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.Number, &o.ProductID, &o.BOMID, &o.LocationID, &o.Ownership,
		&o.OrderedQty, &o.ProducedQty, &o.Status, &o.Note,
		&o.ReleasedAt, &o.StartedAt, &o.ClosedAt,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assembly order: %w", err)
	}
	lines, err := r.loadLines(o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *AssemblyOrderRepo) loadLines(orderID string) ([]entity.AssemblyOrderLine, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, order_id, component_id, qty_per_unit, planned_qty, consumed_qty
		FROM assembly_order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list assembly order lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.AssemblyOrderLine
	for rows.Next() {
		var ln entity.AssemblyOrderLine
		if err := rows.Scan(&ln.ID, &ln.OrderID, &ln.ComponentID, &ln.QtyPerUnit, &ln.PlannedQty, &ln.ConsumedQty); err != nil {
			return nil, fmt.Errorf("scan assembly order line: %w", err)
		}
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

// Update persiste cabecera y líneas; las líneas se reemplazan completas.
func (r *AssemblyOrderRepo) Update(order *entity.AssemblyOrder) error {
	ctx := context.Background()
	query := `
		UPDATE assembly_orders SET
			number = $2, product_id = $3, bom_id = $4, location_id = $5, ownership = $6,
			ordered_qty = $7, produced_qty = $8, status = $9, note = $10,
			released_at = $11, started_at = $12, closed_at = $13, updated_at = $14
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		order.ID, order.Number, order.ProductID, order.BOMID, order.LocationID,
		string(order.Ownership), order.OrderedQty, order.ProducedQty, string(order.Status),
		order.Note, order.ReleasedAt, order.StartedAt, order.ClosedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update assembly order: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM assembly_order_lines WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete assembly order lines: %w", err)
	}
	return r.insertLines(ctx, order)
}

// List lista órdenes, opcionalmente filtradas por estado, con sus líneas.
func (r *AssemblyOrderRepo) List(status entity.AssemblyOrderStatus, limit, offset int) ([]*entity.AssemblyOrder, error) {
	query := `
		SELECT ` + assemblyOrderColumns + `
		FROM assembly_orders`
	args := []any{}
	pos := 1
	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", pos)
		args = append(args, string(status))
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assembly orders: %w", err)
	}
	var list []*entity.AssemblyOrder
	for rows.Next() {
		var o entity.AssemblyOrder
		if err := rows.Scan(&o.ID, &o.Number, &o.ProductID, &o.BOMID, &o.LocationID, &o.Ownership,
			&o.OrderedQty, &o.ProducedQty, &o.Status, &o.Note,
			&o.ReleasedAt, &o.StartedAt, &o.ClosedAt,
			&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan assembly order: %w", err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for _, o := range list {
		lines, err := r.loadLines(o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}
	return list, nil
}
