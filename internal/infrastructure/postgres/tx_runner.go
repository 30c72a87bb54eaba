package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/stock-engine/internal/application/assembly"
	"github.com/tu-usuario/stock-engine/internal/application/receipt"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// Ensure TxRunner implements the application tx ports.
var _ stock.TxRunner = (*TxRunner)(nil)
var _ assembly.TxRunner = (*TxRunner)(nil)
var _ receipt.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Cada transacción fija lock_timeout para que la espera por una fila de stock
// bloqueada no quede abierta indefinidamente; si el timeout vence, el error se
// traduce a ErrConcurrentModification y el cliente puede reintentar.
type TxRunner struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

// NewTxRunner construye el runner con el pool. lockTimeoutMS <= 0 desactiva
// el lock_timeout por transacción.
func NewTxRunner(pool *pgxpool.Pool, lockTimeoutMS int) *TxRunner {
	return &TxRunner{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

// Run inicia una transacción, ejecuta fn con los repos de stock atados a la tx
// y hace Commit o Rollback. La fila de stock, el asiento del libro y el evento
// outbox quedan en el mismo commit.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewStockRecordRepository(q), NewMovementRepository(q), NewOutboxRepository(q))
	})
}

// RunAssembly inicia una transacción con los repos de stock más el de órdenes
// de ensamble (liberación, reporte de producción, cierre).
func (r *TxRunner) RunAssembly(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
	orderRepo repository.AssemblyOrderRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewStockRecordRepository(q), NewMovementRepository(q), NewOutboxRepository(q), NewAssemblyOrderRepository(q))
	})
}

// RunReceipt inicia una transacción con los repos de stock más el de
// recepciones (confirmación).
func (r *TxRunner) RunReceipt(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
	receiptRepo repository.GoodsReceiptRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewStockRecordRepository(q), NewMovementRepository(q), NewOutboxRepository(q), NewGoodsReceiptRepository(q))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeoutMS > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeoutMS)); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		if isLockContention(err) {
			return fmt.Errorf("%w: %v", domain.ErrConcurrentModification, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isLockContention(err) {
			return fmt.Errorf("%w: %v", domain.ErrConcurrentModification, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
