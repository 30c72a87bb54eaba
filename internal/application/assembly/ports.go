package assembly

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye los
// repositorios de stock y el de órdenes de ensamble.
type TxRunner interface {
	RunAssembly(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
		orderRepo repository.AssemblyOrderRepository,
	) error) error
}

// StockApplier es lo que el ensamble necesita del procesador de movimientos
// para componer consumos y entradas de producción en su propia transacción.
// Si retorna error (ej. stock insuficiente) el caller debe hacer rollback.
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
