package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.GoodsReceiptRepository = (*GoodsReceiptRepo)(nil)

const goodsReceiptColumns = `id, number, location_id, supplier_id, ref_type, ref_id, status, note, received_by, received_at, created_by, created_at, updated_at`

// GoodsReceiptRepo implementación del puerto GoodsReceiptRepository sobre
// PostgreSQL (usable con pool o tx).
type GoodsReceiptRepo struct {
	q Querier
}

// NewGoodsReceiptRepository construye el adaptador de recepciones. Pasar pool o tx (Querier).
func NewGoodsReceiptRepository(q Querier) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{q: q}
}

// Create persiste la recepción con sus líneas.
func (r *GoodsReceiptRepo) Create(receipt *entity.GoodsReceipt) error {
	ctx := context.Background()
	query := `
		INSERT INTO goods_receipts (` + goodsReceiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		receipt.ID, receipt.Number, receipt.LocationID, receipt.SupplierID,
		receipt.RefType, receipt.RefID, string(receipt.Status), receipt.Note,
		receipt.ReceivedBy, receipt.ReceivedAt,
		receipt.CreatedBy, receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert goods receipt: número duplicado: %w", err)
		}
		return fmt.Errorf("insert goods receipt: %w", err)
	}
	return r.insertLines(ctx, receipt)
}

func (r *GoodsReceiptRepo) insertLines(ctx context.Context, receipt *entity.GoodsReceipt) error {
	for _, ln := range receipt.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO goods_receipt_lines (id, receipt_id, product_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5)`,
			ln.ID, receipt.ID, ln.ProductID, ln.Quantity, ln.UnitCost,
		)
		if err != nil {
			return fmt.Errorf("insert goods receipt line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la recepción con sus líneas. Devuelve (nil, nil) si no existe.
func (r *GoodsReceiptRepo) GetByID(id string) (*entity.GoodsReceipt, error) {
	query := `
		SELECT ` + goodsReceiptColumns + `
		FROM goods_receipts WHERE id = $1`
	return r.getOne(query, id)
}

// GetForUpdate obtiene la recepción bloqueando la cabecera para que dos
// confirmaciones concurrentes no pasen ambas la verificación de estado.
func (r *GoodsReceiptRepo) GetForUpdate(id string) (*entity.GoodsReceipt, error) {
	query := `
		SELECT ` + goodsReceiptColumns + `
		FROM goods_receipts WHERE id = $1
		FOR UPDATE`
	return r.getOne(query, id)
}

func (r *GoodsReceiptRepo) getOne(query, id string) (*entity.GoodsReceipt, error) {
	var g entity.GoodsReceipt
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&g.ID, &g.Number, &g.LocationID, &g.SupplierID, &g.RefType, &g.RefID,
		&g.Status, &g.Note, &g.ReceivedBy, &g.ReceivedAt,
		&g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get goods receipt: %w", err)
	}
	lines, err := r.loadLines(g.ID)
	if err != nil {
		return nil, err
	}
	g.Lines = lines
	return &g, nil
}

func (r *GoodsReceiptRepo) loadLines(receiptID string) ([]entity.GoodsReceiptLine, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, receipt_id, product_id, quantity, unit_cost
		FROM goods_receipt_lines WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list goods receipt lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.GoodsReceiptLine
	for rows.Next() {
		var ln entity.GoodsReceiptLine
		if err := rows.Scan(&ln.ID, &ln.ReceiptID, &ln.ProductID, &ln.Quantity, &ln.UnitCost); err != nil {
			return nil, fmt.Errorf("scan goods receipt line: %w", err)
		}
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

// Update persiste cabecera y líneas; las líneas se reemplazan completas.
func (r *GoodsReceiptRepo) Update(receipt *entity.GoodsReceipt) error {
	ctx := context.Background()
	query := `
		UPDATE goods_receipts SET
			number = $2, location_id = $3, supplier_id = $4, ref_type = $5, ref_id = $6,
			status = $7, note = $8, received_by = $9, received_at = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		receipt.ID, receipt.Number, receipt.LocationID, receipt.SupplierID,
		receipt.RefType, receipt.RefID, string(receipt.Status), receipt.Note,
		receipt.ReceivedBy, receipt.ReceivedAt, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update goods receipt: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM goods_receipt_lines WHERE receipt_id = $1`, receipt.ID); err != nil {
		return fmt.Errorf("delete goods receipt lines: %w", err)
	}
	return r.insertLines(ctx, receipt)
}

// List lista recepciones, opcionalmente filtradas por estado, con sus líneas.
func (r *GoodsReceiptRepo) List(status entity.GoodsReceiptStatus, limit, offset int) ([]*entity.GoodsReceipt, error) {
	query := `
		SELECT ` + goodsReceiptColumns + `
		FROM goods_receipts`
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
		return nil, fmt.Errorf("list goods receipts: %w", err)
	}
	var list []*entity.GoodsReceipt
	for rows.Next() {
		var g entity.GoodsReceipt
		if err := rows.Scan(&g.ID, &g.Number, &g.LocationID, &g.SupplierID, &g.RefType, &g.RefID,
			&g.Status, &g.Note, &g.ReceivedBy, &g.ReceivedAt,
			&g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan goods receipt: %w", err)
		}
		list = append(list, &g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for _, g := range list {
		lines, err := r.loadLines(g.ID)
		if err != nil {
			return nil, err
		}
		g.Lines = lines
	}
	return list, nil
}
