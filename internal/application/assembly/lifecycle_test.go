package assembly_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-engine/internal/application/assembly"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/costing"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del ciclo de vida de órdenes de ensamble.
//
// Escenario de referencia (calculado a mano): mesa que consume 2 patas por
// unidad, orden por 10 mesas, 25 patas vendibles a costo promedio 10.00.
//
//	release     -> patas: SELLABLE 5,  ALLOCATED 20
//	report(4)   -> consume 8 patas (80.00), ALLOCATED 12,
//	               4 mesas entran a SELLABLE a 80.00 / 4 = 20.00
//	cancel      -> devuelve las 12 asignadas: SELLABLE 17, ALLOCATED 0
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodMesa    = "prod-mesa"
	prodPata    = "prod-pata"
	bomMesa     = "bom-mesa"
	locPlanta   = "loc-planta"   // recibe y fabrica
	locDeposito = "loc-deposito" // recibe y vende, no fabrica
	actorTest   = "user-pruebas"
)

func TestCreateOrder_CongelaLineasDelBOM(t *testing.T) {
	_, _, uc := newAssemblyEnv(t)

	order := createOrder(t, uc, "10")

	assert.Equal(t, entity.AssemblyDraft, order.Status)
	assert.Regexp(t, "^AO-", order.Number, "sin número explícito se genera uno con prefijo AO-")
	require.Len(t, order.Lines, 1, "la orden congela una línea por componente del BOM")

	ln := order.Lines[0]
	assert.Equal(t, prodPata, ln.ComponentID)
	assertDec(t, "2", ln.QtyPerUnit, "consumo por unidad según el BOM")
	assertDec(t, "20", ln.PlannedQty, "PlannedQty = QtyPerUnit × OrderedQty")
	assertDec(t, "0", ln.ConsumedQty, "nada consumido al crear")
}

func TestCreateOrder_ProductoSinBOM_Falla(t *testing.T) {
	_, _, uc := newAssemblyEnv(t)

	_, err := uc.CreateOrder(context.Background(), assembly.CreateOrderInput{
		ProductID:  prodPata, // la pata es componente, no tiene BOM
		LocationID: locPlanta,
		OrderedQty: dec("5"),
	})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound,
		"ordenar un producto sin BOM debe fallar")
}

func TestCreateOrder_CantidadNoPositiva_EsInvalida(t *testing.T) {
	_, _, uc := newAssemblyEnv(t)

	_, err := uc.CreateOrder(context.Background(), assembly.CreateOrderInput{
		ProductID:  prodMesa,
		LocationID: locPlanta,
		OrderedQty: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateDraft_RederivaPlanDeConsumo(t *testing.T) {
	_, _, uc := newAssemblyEnv(t)
	order := createOrder(t, uc, "10")

	qty := dec("8")
	updated, err := uc.UpdateDraft(context.Background(), order.ID, assembly.UpdateDraftInput{
		OrderedQty: &qty,
	})
	require.NoError(t, err, "una orden en borrador admite cambios de cantidad")
	assertDec(t, "8", updated.OrderedQty, "cantidad actualizada")
	assertDec(t, "16", updated.Lines[0].PlannedQty, "el plan se rederiva con la nueva cantidad")
}

// ── Liberación ────────────────────────────────────────────────────────────────

func TestRelease_AsignaComponentes_VendibleAAsignado(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := createOrder(t, uc, "10")

	released, err := uc.Release(context.Background(), order.ID)
	require.NoError(t, err, "liberar con componentes suficientes no debe fallar")

	assert.Equal(t, entity.AssemblyReleased, released.Status)
	assert.NotNil(t, released.ReleasedAt, "liberar debe sellar ReleasedAt")

	rec := getRecord(t, store, prodPata)
	assertDec(t, "5", rec.Sellable, "quedan 25 − 20 patas vendibles")
	assertDec(t, "20", rec.Allocated, "las 20 planificadas pasan a ALLOCATED")
	assertDec(t, "25", rec.OnHand, "OnHand no cambia al asignar")
	assert.True(t, rec.Conserved())

	// Asignar es un traslado entre buckets: no asienta en el libro.
	movs, err := store.Movements().ListByProduct(prodPata, nil, nil, 50, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo debe existir el asiento de la recepción de patas")
}

func TestRelease_FaltanteDeComponente_NoMueveNada(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "15", "10.00") // se necesitan 20
	order := createOrder(t, uc, "10")

	_, err := uc.Release(context.Background(), order.ID)
	require.Error(t, err, "liberar sin componentes suficientes debe fallar")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assertDec(t, "20", insErr.Requested, "faltante reportado sobre lo planificado")
	assertDec(t, "15", insErr.Available, "disponible reportado")

	// Todo o nada: ni el stock ni la orden cambian.
	rec := getRecord(t, store, prodPata)
	assertDec(t, "15", rec.Sellable, "el vendible no debe cambiar tras el rechazo")
	assertDec(t, "0", rec.Allocated, "nada debe quedar asignado tras el rechazo")
	current, err := uc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AssemblyDraft, current.Status, "la orden sigue en borrador")
}

func TestRelease_OrdenYaLiberada_EsTransicionInvalida(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := createOrder(t, uc, "10")
	_, err := uc.Release(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = uc.Release(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "liberar dos veces debe rechazarse")
}

func TestRelease_UbicacionSinManufactura_Falla(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")

	order, err := uc.CreateOrder(context.Background(), assembly.CreateOrderInput{
		ProductID:  prodMesa,
		LocationID: locDeposito,
		OrderedQty: dec("10"),
		ActorID:    actorTest,
	})
	require.NoError(t, err, "crear en una ubicación sin manufactura es válido")

	_, err = uc.Release(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrLocationNotConfigured,
		"liberar exige una ubicación que fabrique")
}

func TestRelease_SinUbicacion_Falla(t *testing.T) {
	_, _, uc := newAssemblyEnv(t)
	order, err := uc.CreateOrder(context.Background(), assembly.CreateOrderInput{
		ProductID:  prodMesa,
		OrderedQty: dec("10"),
	})
	require.NoError(t, err, "la ubicación puede definirse después, en borrador")

	_, err = uc.Release(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrLocationNotConfigured,
		"liberar sin ubicación asignada debe fallar")
}

func TestStart_SoloDesdeReleased(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := createOrder(t, uc, "10")

	// Arrancar en borrador es inválido.
	_, err := uc.Start(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.Release(context.Background(), order.ID)
	require.NoError(t, err)

	started, err := uc.Start(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AssemblyInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)
}

// ── Reporte de producción ─────────────────────────────────────────────────────

func TestReport_ConsumeYProduceAlCostoDeLaCorrida(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")

	updated, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{
		QtyGood: dec("4"),
		ActorID: actorTest,
	})
	require.NoError(t, err, "reportar con asignado suficiente no debe fallar")

	assert.Equal(t, entity.AssemblyInProgress, updated.Status, "4 de 10 no completa la orden")
	assertDec(t, "4", updated.ProducedQty, "producido acumulado")
	assertDec(t, "8", updated.Lines[0].ConsumedQty, "consumo acumulado de la línea")

	// Componente: el consumo sale de ALLOCATED y descuenta OnHand.
	pata := getRecord(t, store, prodPata)
	assertDec(t, "12", pata.Allocated, "20 asignadas − 8 consumidas")
	assertDec(t, "5", pata.Sellable, "el vendible no se toca al consumir")
	assertDec(t, "17", pata.OnHand, "25 − 8 consumidas")
	assert.True(t, pata.Conserved())

	// Producto terminado: entra a SELLABLE al costo BOM de la corrida.
	mesa := getRecord(t, store, prodMesa)
	assertDec(t, "4", mesa.Sellable, "las unidades buenas entran vendibles")
	assertDec(t, "20.00", mesa.AverageCost, "costo de la corrida: 8 × 10.00 / 4 = 20.00")

	// Libro: un asiento de consumo y uno de producción referenciando la orden.
	movs, err := store.Movements().ListByReference(entity.RefTypeAssemblyOrder, order.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2, "la corrida asienta consumo y producción")
	consume, produce := findByKind(t, movs)
	assertDec(t, "-8", consume.Quantity, "consumo con signo negativo")
	assertDec(t, "10.00", consume.UnitCost, "el consumo se valora al promedio del componente")
	assertDec(t, "-80.00", consume.TotalCost, "costo total consumido")
	assert.Equal(t, entity.BucketAllocated, consume.Bucket)
	assertDec(t, "4", produce.Quantity, "cantidad producida en el asiento")
	assertDec(t, "20.00", produce.UnitCost, "la producción entra al costo de la corrida")

	// Outbox: recepción de patas + consumo + producción.
	pending, err := store.Outbox().ListPending(50)
	require.NoError(t, err)
	assert.Len(t, pending, 3, "cada asiento deja su evento contable")
}

func TestReport_CostoUnitarioRedondeaMitadArriba(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	require.NoError(t, store.Products().Create(&entity.Product{
		ID: "prod-kit", SKU: "KIT-01", Name: "Kit de mantenimiento", BOMID: "bom-kit",
	}))
	require.NoError(t, store.BOMs().Create(&entity.BillOfMaterials{
		ID: "bom-kit", ProductID: "prod-kit", Version: "v1", Name: "Kit v1",
		Lines: []entity.BOMLine{
			{ID: "bkl-1", BOMID: "bom-kit", Sequence: 1, ComponentID: prodPata, QtyPerUnit: dec("0.5")},
		},
	}))
	seedPatas(t, svc, "10", "10.01")

	order, err := uc.CreateOrder(context.Background(), assembly.CreateOrderInput{
		ProductID:  "prod-kit",
		LocationID: locPlanta,
		OrderedQty: dec("1"),
	})
	require.NoError(t, err)
	_, err = uc.Release(context.Background(), order.ID)
	require.NoError(t, err)
	_, err = uc.Start(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("1")})
	require.NoError(t, err)

	// Consumo 0.5 × 10.01 = 5.005; la unidad terminada entra a 5.01.
	kit := getRecord(t, store, "prod-kit")
	assertDec(t, "5.01", kit.AverageCost, "5.005 debe redondear mitad hacia arriba")
}

func TestReport_MasQueLoAsignado_Falla(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")

	// 11 mesas exigen 22 patas y solo hay 20 asignadas.
	_, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("11")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nada se escribió: ni consumo, ni producción, ni avance de la orden.
	pata := getRecord(t, store, prodPata)
	assertDec(t, "20", pata.Allocated, "el asignado no debe cambiar tras el rechazo")
	current, err := uc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assertDec(t, "0", current.ProducedQty, "la orden no debe registrar avance")
}

func TestReport_OrdenNoIniciada_EsInvalido(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := createOrder(t, uc, "10")

	// En borrador no se reporta.
	_, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Liberada pero no iniciada, tampoco.
	_, err = uc.Release(context.Background(), order.ID)
	require.NoError(t, err)
	_, err = uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReport_CantidadNoPositiva_EsInvalida(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")

	_, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReport_AlcanzarLoOrdenado_CompletaYLiberaRemanente(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")

	updated, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("10")})
	require.NoError(t, err)

	assert.Equal(t, entity.AssemblyCompleted, updated.Status,
		"alcanzar lo ordenado completa la orden")
	assert.NotNil(t, updated.ClosedAt)
	assertDec(t, "10", updated.ProducedQty, "producido acumulado al completar")

	pata := getRecord(t, store, prodPata)
	assertDec(t, "0", pata.Allocated, "todo lo asignado se consumió")
	assertDec(t, "5", pata.Sellable, "no había remanente que devolver")
	assertDec(t, "5", pata.OnHand, "OnHand de patas tras consumir las 20")

	mesa := getRecord(t, store, prodMesa)
	assertDec(t, "10", mesa.Sellable, "las 10 mesas quedan vendibles")
}

// ── Cierre y cancelación ──────────────────────────────────────────────────────

func TestComplete_ProduccionParcial_DevuelveRemanente(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")
	_, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("4")})
	require.NoError(t, err)

	completed, err := uc.Complete(context.Background(), order.ID)
	require.NoError(t, err, "cerrar con producción parcial es válido")

	assert.Equal(t, entity.AssemblyCompleted, completed.Status)
	assert.NotNil(t, completed.ClosedAt)
	assertDec(t, "4", completed.ProducedQty, "lo producido no cambia al cerrar")

	pata := getRecord(t, store, prodPata)
	assertDec(t, "0", pata.Allocated, "el remanente asignado se libera")
	assertDec(t, "17", pata.Sellable, "5 vendibles + 12 devueltas")
	assertDec(t, "17", pata.OnHand, "OnHand de patas tras cerrar")
	assert.True(t, pata.Conserved())
}

func TestCancel_TrasReporte_DevuelveRemanenteYConservaLoProducido(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")
	_, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("4")})
	require.NoError(t, err)

	cancelled, err := uc.Cancel(context.Background(), order.ID)
	require.NoError(t, err, "cancelar una orden en proceso es válido")

	assert.Equal(t, entity.AssemblyCancelled, cancelled.Status)
	assertDec(t, "4", cancelled.ProducedQty, "lo ya producido no se revierte")

	pata := getRecord(t, store, prodPata)
	assertDec(t, "17", pata.Sellable, "las 12 asignadas sin consumir vuelven al vendible")
	assertDec(t, "0", pata.Allocated, "el asignado queda en cero al cancelar")

	// Las mesas ya fabricadas siguen en stock.
	mesa := getRecord(t, store, prodMesa)
	assertDec(t, "4", mesa.Sellable, "lo producido antes de cancelar se conserva")
}

func TestCancel_DesdeDraft_NoTocaStock(t *testing.T) {
	store, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := createOrder(t, uc, "10")

	cancelled, err := uc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AssemblyCancelled, cancelled.Status)

	rec := getRecord(t, store, prodPata)
	assertDec(t, "25", rec.Sellable, "cancelar un borrador no mueve stock")
	assertDec(t, "0", rec.Allocated, "un borrador nunca tuvo asignaciones")
}

func TestCancel_OrdenTerminada_EsInvalido(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := inProgressOrder(t, uc, "10")
	_, err := uc.Report(context.Background(), order.ID, assembly.ReportInput{QtyGood: dec("10")})
	require.NoError(t, err)

	_, err = uc.Cancel(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"una orden completada ya no se cancela")
}

func TestUpdateDraft_OrdenLiberada_EsInvalido(t *testing.T) {
	_, svc, uc := newAssemblyEnv(t)
	seedPatas(t, svc, "25", "10.00")
	order := createOrder(t, uc, "10")
	_, err := uc.Release(context.Background(), order.ID)
	require.NoError(t, err)

	note := "cambio tardío"
	_, err = uc.UpdateDraft(context.Background(), order.ID, assembly.UpdateDraftInput{Note: &note})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"después de liberar la orden ya no se edita")
}

// ── helpers ───────────────────────────────────────────────────────────────────

// newAssemblyEnv arma el almacén con el catálogo de prueba (mesa con BOM de
// 2 patas por unidad), el procesador de movimientos y el caso de uso encima.
func newAssemblyEnv(t *testing.T) (*memory.Store, *stock.Service, *assembly.UseCase) {
	t.Helper()
	store := memory.NewStore()

	products := []*entity.Product{
		{ID: prodMesa, SKU: "MES-01", Name: "Mesa de centro", UnitMeasure: "und", BOMID: bomMesa},
		{ID: prodPata, SKU: "PAT-01", Name: "Pata torneada", UnitMeasure: "und"},
	}
	for _, p := range products {
		require.NoError(t, store.Products().Create(p))
	}
	locations := []*entity.Location{
		{ID: locPlanta, Code: "PLA-01", Name: "Planta de ensamble", Purchasable: true, Manufacturing: true},
		{ID: locDeposito, Code: "DEP-01", Name: "Depósito", Sellable: true, Purchasable: true},
	}
	for _, l := range locations {
		require.NoError(t, store.Locations().Create(l))
	}
	require.NoError(t, store.BOMs().Create(&entity.BillOfMaterials{
		ID: bomMesa, ProductID: prodMesa, Version: "v1", Name: "Mesa de centro v1",
		Lines: []entity.BOMLine{
			{ID: "bl-1", BOMID: bomMesa, Sequence: 1, ComponentID: prodPata, QtyPerUnit: dec("2")},
		},
	}))

	svc := stock.NewService(store, store.Products(), store.Locations(), costing.DefaultScale)
	uc := assembly.NewUseCase(store, svc, store.AssemblyOrders(), store.Products(),
		store.Locations(), store.BOMs(), costing.DefaultScale)
	return store, svc, uc
}

// seedPatas recibe patas en la planta para alimentar las órdenes de prueba.
func seedPatas(t *testing.T, svc *stock.Service, qty, cost string) {
	t.Helper()
	unitCost := dec(cost)
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodPata,
		LocationID: locPlanta,
		Kind:       entity.MovementReceipt,
		Quantity:   dec(qty),
		UnitCost:   &unitCost,
		ActorID:    actorTest,
	})
	require.NoError(t, err, "la recepción de patas de prueba no debe fallar")
}

func createOrder(t *testing.T, uc *assembly.UseCase, qty string) *entity.AssemblyOrder {
	t.Helper()
	order, err := uc.CreateOrder(context.Background(), assembly.CreateOrderInput{
		ProductID:  prodMesa,
		LocationID: locPlanta,
		OrderedQty: dec(qty),
		ActorID:    actorTest,
	})
	require.NoError(t, err, "crear la orden de prueba no debe fallar")
	return order
}

// inProgressOrder crea, libera y arranca una orden lista para reportar.
func inProgressOrder(t *testing.T, uc *assembly.UseCase, qty string) *entity.AssemblyOrder {
	t.Helper()
	order := createOrder(t, uc, qty)
	_, err := uc.Release(context.Background(), order.ID)
	require.NoError(t, err, "liberar la orden de prueba no debe fallar")
	started, err := uc.Start(context.Background(), order.ID)
	require.NoError(t, err, "arrancar la orden de prueba no debe fallar")
	return started
}

func getRecord(t *testing.T, store *memory.Store, productID string) *entity.StockRecord {
	t.Helper()
	rec, err := store.StockRecords().Get(entity.StockKey{
		ProductID: productID, LocationID: locPlanta, Ownership: entity.OwnershipOwned,
	})
	require.NoError(t, err)
	require.NotNil(t, rec, "la fila de stock debe existir")
	return rec
}

func findByKind(t *testing.T, movs []*entity.Movement) (consume, produce *entity.Movement) {
	t.Helper()
	for _, m := range movs {
		switch m.Kind {
		case entity.MovementAssemblyConsume:
			consume = m
		case entity.MovementAssemblyProduce:
			produce = m
		}
	}
	require.NotNil(t, consume, "debe existir el asiento de consumo")
	require.NotNil(t, produce, "debe existir el asiento de producción")
	return consume, produce
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertDec compara decimales por valor numérico: assert.Equal no sirve porque
// dos decimales iguales pueden diferir en el exponente interno.
func assertDec(t *testing.T, expected string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(expected)), "%s: esperado %s, obtuvo %s", msg, expected, got)
}
