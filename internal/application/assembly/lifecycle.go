package assembly

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/costing"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// Release pasa la orden de DRAFT a RELEASED asignando componentes:
// SELLABLE -> ALLOCATED por la PlannedQty de cada línea, todo o nada. Si una
// línea no alcanza, nada se mueve y el error identifica el primer faltante.
func (uc *UseCase) Release(ctx context.Context, orderID string) (*entity.AssemblyOrder, error) {
	// Validación de maestros fuera de la transacción; el estado se
	// re-verifica adentro con la orden bloqueada.
	order, err := uc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.AssemblyDraft {
		return nil, invalidTransition(order, entity.AssemblyReleased)
	}
	if order.LocationID == "" {
		return nil, fmt.Errorf("%w: la orden no tiene ubicación de producción", domain.ErrLocationNotConfigured)
	}
	loc, err := uc.locationRepo.GetByID(order.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "ubicación", ID: order.LocationID}
	}
	if !loc.Manufacturing {
		return nil, fmt.Errorf("%w: %s no ejecuta ensambles", domain.ErrLocationNotConfigured, loc.Code)
	}

	now := time.Now()
	var updated *entity.AssemblyOrder
	err = uc.txRunner.RunAssembly(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.OutboxRepository,
		orderRepo repository.AssemblyOrderRepository,
	) error {
		o, err := lockOrder(orderRepo, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.AssemblyDraft {
			return invalidTransition(o, entity.AssemblyReleased)
		}

		moves := make([]stock.BucketMove, 0, len(o.Lines))
		for _, ln := range o.Lines {
			moves = append(moves, stock.BucketMove{
				Key:  componentKey(o, ln),
				From: entity.BucketSellable,
				To:   entity.BucketAllocated,
				Qty:  ln.PlannedQty,
			})
		}
		if _, err := stock.ApplyBucketMoves(stockRepo, moves, now); err != nil {
			return err
		}

		o.Status = entity.AssemblyReleased
		o.ReleasedAt = &now
		o.UpdatedAt = now
		if err := orderRepo.Update(o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Start pasa la orden de RELEASED a IN_PROGRESS. No toca stock.
func (uc *UseCase) Start(ctx context.Context, orderID string) (*entity.AssemblyOrder, error) {
	now := time.Now()
	var updated *entity.AssemblyOrder
	err := uc.txRunner.RunAssembly(ctx, func(
		_ repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.OutboxRepository,
		orderRepo repository.AssemblyOrderRepository,
	) error {
		o, err := lockOrder(orderRepo, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.AssemblyReleased {
			return invalidTransition(o, entity.AssemblyInProgress)
		}
		o.Status = entity.AssemblyInProgress
		o.StartedAt = &now
		o.UpdatedAt = now
		if err := orderRepo.Update(o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReportInput reporta unidades buenas terminadas de una orden IN_PROGRESS.
type ReportInput struct {
	QtyGood decimal.Decimal // positiva
	Note    string
	ActorID string
}

// Report consume componentes desde ALLOCATED (QtyPerUnit × QtyGood por línea,
// al promedio vigente de cada componente) y da entrada al producto terminado
// en SELLABLE al costo BOM de la corrida: consumo total / QtyGood, redondeado.
// Si con esto ProducedQty alcanza OrderedQty, la orden libera el remanente
// asignado y pasa a COMPLETED. La sobreproducción es válida.
func (uc *UseCase) Report(ctx context.Context, orderID string, input ReportInput) (*entity.AssemblyOrder, error) {
	if !input.QtyGood.GreaterThan(decimal.Zero) {
		return nil, &domain.ValidationError{Field: "qty_good", Reason: "debe ser positiva"}
	}

	// Prefetch de productos fuera de la transacción. Las líneas de una orden
	// liberada son inmutables, así que el snapshot sigue válido adentro.
	order, err := uc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.AssemblyInProgress {
		return nil, reportNotAllowed(order)
	}
	products, err := uc.fetchProducts(order)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var updated *entity.AssemblyOrder
	err = uc.txRunner.RunAssembly(ctx, func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
		orderRepo repository.AssemblyOrderRepository,
	) error {
		o, err := lockOrder(orderRepo, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.AssemblyInProgress {
			return reportNotAllowed(o)
		}

		// Bloquea componentes y producto terminado en orden estable.
		locked, err := lockStockRows(stockRepo, o, true)
		if err != nil {
			return err
		}

		// Todo o nada: valida el ALLOCATED de todas las líneas antes de
		// escribir nada.
		running := make(map[entity.StockKey]decimal.Decimal)
		for _, ln := range o.Lines {
			consume := ln.QtyPerUnit.Mul(input.QtyGood)
			k := componentKey(o, ln)
			total := running[k].Add(consume)
			running[k] = total
			available := decimal.Zero
			if rec := locked[k]; rec != nil {
				available = rec.Allocated
			}
			if available.LessThan(total) {
				return &domain.InsufficientStockError{
					ProductID:  ln.ComponentID,
					LocationID: o.LocationID,
					Ownership:  string(o.Ownership),
					Bucket:     string(entity.BucketAllocated),
					Requested:  total,
					Available:  available,
				}
			}
		}

		// Consumo por línea al promedio vigente del componente.
		totalCost := decimal.Zero
		for i := range o.Lines {
			ln := &o.Lines[i]
			consume := ln.QtyPerUnit.Mul(input.QtyGood)
			res, err := uc.stock.ApplyInTx(stockRepo, movRepo, outboxRepo, products[ln.ComponentID], stock.ApplyMovementInput{
				ProductID:  ln.ComponentID,
				LocationID: o.LocationID,
				Ownership:  o.Ownership,
				Kind:       entity.MovementAssemblyConsume,
				Bucket:     entity.BucketAllocated,
				Quantity:   consume.Neg(),
				RefType:    entity.RefTypeAssemblyOrder,
				RefID:      o.ID,
				Note:       input.Note,
				ActorID:    input.ActorID,
			}, now)
			if err != nil {
				return err
			}
			totalCost = totalCost.Add(res.Movement.TotalCost.Neg())
			ln.ConsumedQty = ln.ConsumedQty.Add(consume)
		}

		// Entrada del producto terminado al costo BOM de esta corrida.
		unitCost := costing.Round(totalCost.Div(input.QtyGood), uc.costScale)
		if _, err := uc.stock.ApplyInTx(stockRepo, movRepo, outboxRepo, products[o.ProductID], stock.ApplyMovementInput{
			ProductID:  o.ProductID,
			LocationID: o.LocationID,
			Ownership:  o.Ownership,
			Kind:       entity.MovementAssemblyProduce,
			Bucket:     entity.BucketSellable,
			Quantity:   input.QtyGood,
			UnitCost:   &unitCost,
			RefType:    entity.RefTypeAssemblyOrder,
			RefID:      o.ID,
			Note:       input.Note,
			ActorID:    input.ActorID,
		}, now); err != nil {
			return err
		}

		o.ProducedQty = o.ProducedQty.Add(input.QtyGood)
		if o.ProducedQty.GreaterThanOrEqual(o.OrderedQty) {
			if err := uc.deallocate(stockRepo, o, now, true); err != nil {
				return err
			}
			o.Status = entity.AssemblyCompleted
			o.ClosedAt = &now
		}
		o.UpdatedAt = now
		if err := orderRepo.Update(o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete cierra manualmente una orden IN_PROGRESS con producción parcial,
// devolviendo a SELLABLE lo asignado que no se consumió.
func (uc *UseCase) Complete(ctx context.Context, orderID string) (*entity.AssemblyOrder, error) {
	now := time.Now()
	var updated *entity.AssemblyOrder
	err := uc.txRunner.RunAssembly(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.OutboxRepository,
		orderRepo repository.AssemblyOrderRepository,
	) error {
		o, err := lockOrder(orderRepo, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.AssemblyInProgress {
			return invalidTransition(o, entity.AssemblyCompleted)
		}
		if err := uc.deallocate(stockRepo, o, now, true); err != nil {
			return err
		}
		o.Status = entity.AssemblyCompleted
		o.ClosedAt = &now
		o.UpdatedAt = now
		if err := orderRepo.Update(o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel anula la orden desde DRAFT, RELEASED o IN_PROGRESS. Si ya estaba
// liberada devuelve a SELLABLE todo el remanente asignado
// (PlannedQty − ConsumedQty por línea). Las cantidades ya consumidas y lo ya
// producido no se revierten.
func (uc *UseCase) Cancel(ctx context.Context, orderID string) (*entity.AssemblyOrder, error) {
	now := time.Now()
	var updated *entity.AssemblyOrder
	err := uc.txRunner.RunAssembly(ctx, func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.OutboxRepository,
		orderRepo repository.AssemblyOrderRepository,
	) error {
		o, err := lockOrder(orderRepo, orderID)
		if err != nil {
			return err
		}
		switch o.Status {
		case entity.AssemblyDraft, entity.AssemblyReleased, entity.AssemblyInProgress:
		default:
			return invalidTransition(o, entity.AssemblyCancelled)
		}
		if o.Status != entity.AssemblyDraft {
			if err := uc.deallocate(stockRepo, o, now, false); err != nil {
				return err
			}
		}
		o.Status = entity.AssemblyCancelled
		o.ClosedAt = &now
		o.UpdatedAt = now
		if err := orderRepo.Update(o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// deallocate devuelve a SELLABLE lo asignado que la orden ya no va a consumir
// (PlannedQty − ConsumedQty por línea, piso en cero). Con clamped cada
// devolución se limita al ALLOCATED vigente de la fila.
func (uc *UseCase) deallocate(
	stockRepo repository.StockRecordRepository,
	o *entity.AssemblyOrder,
	now time.Time,
	clamped bool,
) error {
	var locked map[entity.StockKey]*entity.StockRecord
	if clamped {
		var err error
		locked, err = lockStockRows(stockRepo, o, false)
		if err != nil {
			return err
		}
	}

	moves := make([]stock.BucketMove, 0, len(o.Lines))
	for _, ln := range o.Lines {
		remaining := ln.PlannedQty.Sub(ln.ConsumedQty)
		if !remaining.GreaterThan(decimal.Zero) {
			continue
		}
		k := componentKey(o, ln)
		if clamped {
			available := decimal.Zero
			if rec := locked[k]; rec != nil {
				available = rec.Allocated
			}
			if remaining.GreaterThan(available) {
				remaining = available
			}
			if !remaining.GreaterThan(decimal.Zero) {
				continue
			}
		}
		moves = append(moves, stock.BucketMove{
			Key:  k,
			From: entity.BucketAllocated,
			To:   entity.BucketSellable,
			Qty:  remaining,
		})
	}
	if len(moves) == 0 {
		return nil
	}
	_, err := stock.ApplyBucketMoves(stockRepo, moves, now)
	return err
}

// lockStockRows bloquea en orden estable las filas de los componentes de la
// orden y, si includeOutput, también la del producto terminado. Devuelve las
// filas tal como están dentro de la transacción (nil = inexistente).
func lockStockRows(
	stockRepo repository.StockRecordRepository,
	o *entity.AssemblyOrder,
	includeOutput bool,
) (map[entity.StockKey]*entity.StockRecord, error) {
	seen := make(map[entity.StockKey]bool, len(o.Lines)+1)
	keys := make([]entity.StockKey, 0, len(o.Lines)+1)
	for _, ln := range o.Lines {
		k := componentKey(o, ln)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if includeOutput {
		k := entity.StockKey{ProductID: o.ProductID, LocationID: o.LocationID, Ownership: o.Ownership}
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	locked := make(map[entity.StockKey]*entity.StockRecord, len(keys))
	for _, k := range keys {
		rec, err := stockRepo.GetForUpdate(k)
		if err != nil {
			return nil, err
		}
		locked[k] = rec
	}
	return locked, nil
}

func (uc *UseCase) fetchProducts(order *entity.AssemblyOrder) (map[string]*entity.Product, error) {
	products := make(map[string]*entity.Product, len(order.Lines)+1)
	ids := make([]string, 0, len(order.Lines)+1)
	ids = append(ids, order.ProductID)
	for _, ln := range order.Lines {
		ids = append(ids, ln.ComponentID)
	}
	for _, id := range ids {
		if _, ok := products[id]; ok {
			continue
		}
		p, err := uc.productRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: id}
		}
		products[id] = p
	}
	return products, nil
}

func lockOrder(orderRepo repository.AssemblyOrderRepository, orderID string) (*entity.AssemblyOrder, error) {
	o, err := orderRepo.GetForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func componentKey(o *entity.AssemblyOrder, ln entity.AssemblyOrderLine) entity.StockKey {
	return entity.StockKey{ProductID: ln.ComponentID, LocationID: o.LocationID, Ownership: o.Ownership}
}

func invalidTransition(o *entity.AssemblyOrder, to entity.AssemblyOrderStatus) error {
	return &domain.InvalidTransitionError{
		Entity: "orden de ensamble",
		ID:     o.ID,
		From:   string(o.Status),
		To:     string(to),
	}
}

func reportNotAllowed(o *entity.AssemblyOrder) error {
	return &domain.InvalidTransitionError{
		Entity: "orden de ensamble",
		ID:     o.ID,
		From:   string(o.Status),
		To:     "REPORT_PRODUCTION",
	}
}
