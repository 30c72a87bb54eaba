package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación del puerto BOMRepository sobre PostgreSQL
// (usable con pool o tx).
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador de listas de materiales. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// Create persiste el BOM con sus líneas.
func (r *BOMRepo) Create(bom *entity.BillOfMaterials) error {
	ctx := context.Background()
	query := `
		INSERT INTO boms (id, product_id, version, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		bom.ID, bom.ProductID, bom.Version, bom.Name, bom.CreatedAt, bom.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bom: %w", err)
	}
	for _, ln := range bom.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO bom_lines (id, bom_id, sequence, component_id, qty_per_unit)
			VALUES ($1, $2, $3, $4, $5)`,
			ln.ID, bom.ID, ln.Sequence, ln.ComponentID, ln.QtyPerUnit,
		)
		if err != nil {
			return fmt.Errorf("insert bom line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el BOM con sus líneas ordenadas por Sequence.
func (r *BOMRepo) GetByID(id string) (*entity.BillOfMaterials, error) {
	query := `
		SELECT id, product_id, version, name, created_at, updated_at
		FROM boms WHERE id = $1`
	return r.getOne(query, id)
}

// GetByProduct obtiene el BOM más reciente del producto, nil si no tiene.
func (r *BOMRepo) GetByProduct(productID string) (*entity.BillOfMaterials, error) {
	query := `
		SELECT id, product_id, version, name, created_at, updated_at
		FROM boms WHERE product_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.getOne(query, productID)
}

func (r *BOMRepo) getOne(query string, arg any) (*entity.BillOfMaterials, error) {
	var b entity.BillOfMaterials
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&b.ID, &b.ProductID, &b.Version, &b.Name, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bom: %w", err)
	}
	lines, err := r.loadLines(b.ID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return &b, nil
}

func (r *BOMRepo) loadLines(bomID string) ([]entity.BOMLine, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, bom_id, sequence, component_id, qty_per_unit
		FROM bom_lines WHERE bom_id = $1 ORDER BY sequence`, bomID)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.BOMLine
	for rows.Next() {
		var ln entity.BOMLine
		if err := rows.Scan(&ln.ID, &ln.BOMID, &ln.Sequence, &ln.ComponentID, &ln.QtyPerUnit); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

// List lista BOMs con paginación, cada uno con sus líneas.
func (r *BOMRepo) List(limit, offset int) ([]*entity.BillOfMaterials, error) {
	query := `
		SELECT id, product_id, version, name, created_at, updated_at
		FROM boms ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list boms: %w", err)
	}
	var list []*entity.BillOfMaterials
	for rows.Next() {
		var b entity.BillOfMaterials
		if err := rows.Scan(&b.ID, &b.ProductID, &b.Version, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan bom: %w", err)
		}
		list = append(list, &b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for _, b := range list {
		lines, err := r.loadLines(b.ID)
		if err != nil {
			return nil, err
		}
		b.Lines = lines
	}
	return list, nil
}

// Delete elimina un BOM; sus líneas caen en cascada.
func (r *BOMRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM boms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bom: %w", err)
	}
	return nil
}
