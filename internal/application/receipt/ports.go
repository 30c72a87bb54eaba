package receipt

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye los
// repositorios de stock y el de recepciones.
type TxRunner interface {
	RunReceipt(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
		receiptRepo repository.GoodsReceiptRepository,
	) error) error
}

// StockApplier es lo que la confirmación de recepciones necesita del
// procesador de movimientos para asentar un RECEIPT por línea en su
// transacción. Si retorna error el caller debe hacer rollback.
type StockApplier interface {
	ApplyInTx(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
		product *entity.Product,
		input stock.ApplyMovementInput,
		now time.Time,
	) (*stock.ApplyMovementResult, error)
}
