package memory

import (
	"context"

	"github.com/tu-usuario/stock-engine/internal/application/assembly"
	"github.com/tu-usuario/stock-engine/internal/application/receipt"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// Ensure Store implements the application tx ports.
var _ stock.TxRunner = (*Store)(nil)
var _ assembly.TxRunner = (*Store)(nil)
var _ receipt.TxRunner = (*Store)(nil)

// Run ejecuta fn sobre un clone del estado y lo publica si no hay error.
// El mutex se retiene durante toda la transacción: equivale a serializar
// todas las transacciones, un caso estricto del bloqueo por fila.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	return s.inTx(func(a access) error {
		return fn(newStockRecordRepo(a), newMovementRepo(a), newOutboxRepo(a))
	})
}

// RunAssembly ejecuta fn con los repos de stock más el de órdenes de ensamble.
func (s *Store) RunAssembly(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
	orderRepo repository.AssemblyOrderRepository,
) error) error {
	return s.inTx(func(a access) error {
		return fn(newStockRecordRepo(a), newMovementRepo(a), newOutboxRepo(a), newAssemblyOrderRepo(a))
	})
}

// RunReceipt ejecuta fn con los repos de stock más el de recepciones.
func (s *Store) RunReceipt(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
	receiptRepo repository.GoodsReceiptRepository,
) error) error {
	return s.inTx(func(a access) error {
		return fn(newStockRecordRepo(a), newMovementRepo(a), newOutboxRepo(a), newGoodsReceiptRepo(a))
	})
}

func (s *Store) inTx(fn func(a access) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := s.st.clone()
	if err := fn(txAccess{st: clone}); err != nil {
		return err
	}
	s.st = clone
	return nil
}
