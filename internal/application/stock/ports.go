package stock

import (
	"context"

	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la fila de stock, el asiento en
// el libro de movimientos y el evento outbox se escriban en el mismo commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error) error
}
