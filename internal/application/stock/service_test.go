package stock_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/costing"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del procesador de movimientos sobre el almacén en memoria, que corre
// las mismas transacciones que el adaptador PostgreSQL.
//
// Escenario de referencia de costeo (calculado a mano):
//
//	RECEIPT 100 @ 10.00 -> OnHand 100, promedio 10.00
//	RECEIPT  50 @ 16.00 -> OnHand 150, promedio (1000 + 800) / 150 = 12.00
//	SALE    -30         -> OnHand 120, promedio intacto, salida valorada a 12.00
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodAceite = "prod-aceite" // Aceite 20W-50, producto de prueba principal
	prodFiltro = "prod-filtro"
	locBodega  = "loc-bodega"   // recibe y vende
	locTienda  = "loc-tienda"   // solo vende
	locTaller  = "loc-taller"   // solo recibe
	actorTest  = "user-pruebas"
)

func TestApplyMovement_RecepcionSobreFilaNueva_CreaSaldoYPromedio(t *testing.T) {
	_, svc := newStockEnv(t)

	res := receive(t, svc, prodAceite, locBodega, "100", "10.00")

	rec := res.Record
	assertDec(t, "100", rec.OnHand, "OnHand tras la primera recepción")
	assertDec(t, "100", rec.Sellable, "la recepción entra al bucket vendible")
	assertDec(t, "10.00", rec.AverageCost, "la primera entrada fija el promedio")
	assertDec(t, "10.00", rec.LastCost, "LastCost es el costo de la última entrada")
	assert.True(t, rec.Conserved(), "OnHand debe igualar la suma de buckets")
	assert.NotNil(t, rec.LastReceivedAt, "una recepción debe sellar LastReceivedAt")

	mov := res.Movement
	assert.Equal(t, entity.MovementReceipt, mov.Kind)
	assertDec(t, "100", mov.Quantity, "cantidad del asiento")
	assertDec(t, "10.00", mov.UnitCost, "costo unitario del asiento")
	assertDec(t, "1000.00", mov.TotalCost, "TotalCost = cantidad × costo")
	assert.Equal(t, actorTest, mov.CreatedBy)
}

func TestApplyMovement_SegundaRecepcion_ReponderaPromedio(t *testing.T) {
	_, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")

	res := receive(t, svc, prodAceite, locBodega, "50", "16.00")

	rec := res.Record
	assertDec(t, "150", rec.OnHand, "OnHand tras la segunda recepción")
	assertDec(t, "12.00", rec.AverageCost, "promedio ponderado (1000 + 800) / 150")
	assertDec(t, "16.00", rec.LastCost, "LastCost pasa al costo de la entrada más reciente")
}

func TestApplyMovement_Venta_DescuentaSinMoverPromedio(t *testing.T) {
	_, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")
	receive(t, svc, prodAceite, locBodega, "50", "16.00")

	res, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementSale,
		Quantity:   dec("-30"),
		RefType:    entity.RefTypeSalesOrder,
		RefID:      "so-001",
		ActorID:    actorTest,
	})
	require.NoError(t, err, "una venta con saldo suficiente no debe fallar")

	rec := res.Record
	assertDec(t, "120", rec.OnHand, "OnHand tras vender 30")
	assertDec(t, "120", rec.Sellable, "la venta sale del bucket vendible")
	assertDec(t, "12.00", rec.AverageCost, "una salida jamás mueve el promedio")
	assert.NotNil(t, rec.LastSoldAt, "una venta debe sellar LastSoldAt")

	mov := res.Movement
	assertDec(t, "-30", mov.Quantity, "la salida se asienta con signo negativo")
	assertDec(t, "12.00", mov.UnitCost, "la salida se valora al promedio vigente")
	assertDec(t, "-360.00", mov.TotalCost, "TotalCost de la salida, con signo")
}

func TestApplyMovement_VentaInsuficiente_NoDejaRastro(t *testing.T) {
	store, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")

	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementSale,
		Quantity:   dec("-200"),
	})
	require.Error(t, err, "vender más del saldo vendible debe fallar")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr, "el error debe detallar el faltante")
	assertDec(t, "200", insErr.Requested, "cantidad solicitada en el detalle")
	assertDec(t, "100", insErr.Available, "cantidad disponible en el detalle")
	assert.Equal(t, string(entity.BucketSellable), insErr.Bucket)

	// La transacción se revierte completa: ni saldo, ni libro, ni outbox.
	rec := getRecord(t, store, prodAceite, locBodega)
	assertDec(t, "100", rec.OnHand, "el saldo no debe cambiar tras el rechazo")
	movs, err := store.Movements().ListByProduct(prodAceite, nil, nil, 50, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo debe existir el asiento de la recepción inicial")
	pending, err := store.Outbox().ListPending(50)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "el rechazo no debe dejar eventos en el outbox")
}

func TestApplyMovement_ReinicioDePromedioTrasVaciarse(t *testing.T) {
	_, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "10", "10.00")

	// Ajuste de salida que deja la fila en cero.
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementAdjustment,
		Quantity:   dec("-10"),
	})
	require.NoError(t, err)

	// La siguiente entrada reinicia el costeo desde base cero.
	res := receive(t, svc, prodAceite, locBodega, "5", "20.00")
	assertDec(t, "20.00", res.Record.AverageCost,
		"con la fila vacía el promedio debe reiniciarse al costo de la entrada")
	assertDec(t, "5", res.Record.OnHand, "OnHand tras el reinicio")
}

func TestApplyMovement_AjustePositivoSinCosto_EntraAlPromedioVigente(t *testing.T) {
	_, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "10", "10.00")

	res, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementAdjustment,
		Quantity:   dec("5"),
	})
	require.NoError(t, err, "un ajuste positivo sin costo explícito es válido")
	assertDec(t, "15", res.Record.OnHand, "OnHand tras el ajuste")
	assertDec(t, "10.00", res.Record.AverageCost,
		"sin costo explícito el ajuste entra al promedio vigente y no lo mueve")
	assertDec(t, "10.00", res.Movement.UnitCost, "el asiento se valora al promedio")
}

// ── Validaciones de entrada ───────────────────────────────────────────────────

func TestApplyMovement_CantidadCero_EsInvalida(t *testing.T) {
	_, svc := newStockEnv(t)
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementAdjustment,
		Quantity:   decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero debe rechazarse")
}

func TestApplyMovement_EntradaSinCosto_EsInvalida(t *testing.T) {
	_, svc := newStockEnv(t)
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementReceipt,
		Quantity:   dec("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una recepción sin costo debe rechazarse")
}

func TestApplyMovement_SignoContrarioAlTipo_EsInvalido(t *testing.T) {
	_, svc := newStockEnv(t)
	cost := dec("10.00")

	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementReceipt,
		Quantity:   dec("-10"),
		UnitCost:   &cost,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "RECEIPT con cantidad negativa debe rechazarse")

	_, err = svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementSale,
		Quantity:   dec("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "SALE con cantidad positiva debe rechazarse")
}

func TestApplyMovement_ConsumoEnsambleFueraDeAsignado_EsInvalido(t *testing.T) {
	_, svc := newStockEnv(t)
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementAssemblyConsume,
		Bucket:     entity.BucketSellable,
		Quantity:   dec("-5"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput,
		"el consumo de ensamble solo puede salir de ALLOCATED")
}

func TestApplyMovement_ProductoInexistente_RetornaReferencia(t *testing.T) {
	_, svc := newStockEnv(t)
	cost := dec("10.00")
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  "prod-fantasma",
		LocationID: locBodega,
		Kind:       entity.MovementReceipt,
		Quantity:   dec("10"),
		UnitCost:   &cost,
	})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestApplyMovement_UbicacionSoloCompra_RechazaVenta(t *testing.T) {
	_, svc := newStockEnv(t)
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locTaller,
		Kind:       entity.MovementSale,
		Quantity:   dec("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrLocationNotConfigured,
		"una ubicación que no vende debe rechazar ventas")
}

func TestApplyMovement_UbicacionSoloVenta_RechazaRecepcion(t *testing.T) {
	_, svc := newStockEnv(t)
	cost := dec("10.00")
	_, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locTienda,
		Kind:       entity.MovementReceipt,
		Quantity:   dec("10"),
		UnitCost:   &cost,
	})
	assert.ErrorIs(t, err, domain.ErrLocationNotConfigured,
		"una ubicación que no recibe debe rechazar recepciones")
}

// ── Libro mayor y outbox ──────────────────────────────────────────────────────

func TestApplyMovement_AsientaLibroYEventoEnElMismoCommit(t *testing.T) {
	store, svc := newStockEnv(t)
	cost := dec("10.00")

	res, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Kind:       entity.MovementReceipt,
		Quantity:   dec("100"),
		UnitCost:   &cost,
		RefType:    entity.RefTypeGoodsReceipt,
		RefID:      "gr-001",
		ActorID:    actorTest,
	})
	require.NoError(t, err)

	// El asiento queda en el libro, consultable por documento de origen.
	movs, err := store.Movements().ListByReference(entity.RefTypeGoodsReceipt, "gr-001")
	require.NoError(t, err)
	require.Len(t, movs, 1, "debe existir exactamente un asiento para el documento")
	assert.Equal(t, res.Movement.ID, movs[0].ID)

	// Y el evento contable queda pendiente en el outbox del mismo commit.
	pending, err := store.Outbox().ListPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "debe existir exactamente un evento pendiente")
	assert.Equal(t, event.KindMovementApplied, pending[0].Kind)

	var applied event.MovementApplied
	require.NoError(t, json.Unmarshal(pending[0].Payload, &applied))
	assert.Equal(t, res.Movement.ID, applied.MovementID)
	assertDec(t, "1000.00", applied.ResultingStockValue,
		"el evento lleva el valor contable de la fila (OnHand × promedio)")
}

// ── Traslados ─────────────────────────────────────────────────────────────────

func TestTransfer_DestinoHeredaPromedioDelOrigen(t *testing.T) {
	store, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")
	receive(t, svc, prodAceite, locBodega, "50", "16.00") // promedio origen 12.00

	res, err := svc.Transfer(context.Background(), stock.TransferInput{
		ProductID:      prodAceite,
		FromLocationID: locBodega,
		ToLocationID:   locTienda,
		Quantity:       dec("30"),
		ActorID:        actorTest,
	})
	require.NoError(t, err, "un traslado con saldo suficiente no debe fallar")

	// Origen: salida TRANSFER_OUT valorada al promedio.
	assert.Equal(t, entity.MovementTransferOut, res.Out.Movement.Kind)
	assertDec(t, "-30", res.Out.Movement.Quantity, "cantidad de salida en el origen")
	assertDec(t, "12.00", res.Out.Movement.UnitCost, "la salida se valora al promedio del origen")
	assertDec(t, "120", res.Out.Record.OnHand, "saldo del origen tras el traslado")
	assertDec(t, "12.00", res.Out.Record.AverageCost, "el promedio del origen no cambia")

	// Destino: entrada TRANSFER_IN al costo promedio del origen.
	assert.Equal(t, entity.MovementTransferIn, res.In.Movement.Kind)
	assertDec(t, "30", res.In.Movement.Quantity, "cantidad de entrada en el destino")
	assertDec(t, "12.00", res.In.Movement.UnitCost, "el destino entra al promedio del origen")
	assertDec(t, "30", res.In.Record.OnHand, "saldo del destino tras el traslado")
	assertDec(t, "12.00", res.In.Record.AverageCost, "fila nueva en destino hereda el costo")

	// Ambos asientos comparten la referencia del traslado.
	require.NotEmpty(t, res.TransferID)
	assert.Equal(t, res.TransferID, res.Out.Movement.RefID)
	assert.Equal(t, res.TransferID, res.In.Movement.RefID)
	movs, err := store.Movements().ListByReference(entity.RefTypeTransfer, res.TransferID)
	require.NoError(t, err)
	assert.Len(t, movs, 2, "el traslado asienta exactamente dos movimientos")
}

func TestTransfer_MismaUbicacion_EsInvalido(t *testing.T) {
	_, svc := newStockEnv(t)
	_, err := svc.Transfer(context.Background(), stock.TransferInput{
		ProductID:      prodAceite,
		FromLocationID: locBodega,
		ToLocationID:   locBodega,
		Quantity:       dec("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "origen y destino no pueden coincidir")
}

func TestTransfer_SinSaldoSuficiente_NoDejaRastro(t *testing.T) {
	store, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "10", "10.00")

	_, err := svc.Transfer(context.Background(), stock.TransferInput{
		ProductID:      prodAceite,
		FromLocationID: locBodega,
		ToLocationID:   locTienda,
		Quantity:       dec("999"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nada se movió: el origen conserva su saldo y el destino no tiene fila.
	origin := getRecord(t, store, prodAceite, locBodega)
	assertDec(t, "10", origin.OnHand, "el origen no debe cambiar tras el rechazo")
	dest, err := store.StockRecords().Get(entity.StockKey{
		ProductID: prodAceite, LocationID: locTienda, Ownership: entity.OwnershipOwned,
	})
	require.NoError(t, err)
	assert.Nil(t, dest, "el destino no debe tener fila tras el rechazo")
}

// ── Reservas ──────────────────────────────────────────────────────────────────

func TestReserve_ApartaVendibleSinAsiento(t *testing.T) {
	store, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")

	rec, err := svc.Reserve(context.Background(), stock.ReserveInput{
		ProductID:  prodAceite,
		LocationID: locBodega,
		Quantity:   dec("30"),
	})
	require.NoError(t, err, "reservar con saldo vendible suficiente no debe fallar")

	assertDec(t, "70", rec.Sellable, "la reserva descuenta del vendible")
	assertDec(t, "30", rec.Reserved, "la reserva acumula en RESERVED")
	assertDec(t, "100", rec.OnHand, "OnHand no cambia con una reserva")
	assert.True(t, rec.Conserved(), "los buckets deben seguir conservando OnHand")

	// Mover entre buckets no asienta en el libro ni publica eventos.
	movs, err := store.Movements().ListByProduct(prodAceite, nil, nil, 50, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo debe existir el asiento de la recepción")
	pending, err := store.Outbox().ListPending(50)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "la reserva no debe dejar eventos en el outbox")
}

func TestUnreserve_DevuelveAlVendible(t *testing.T) {
	_, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")
	_, err := svc.Reserve(context.Background(), stock.ReserveInput{
		ProductID: prodAceite, LocationID: locBodega, Quantity: dec("30"),
	})
	require.NoError(t, err)

	rec, err := svc.Unreserve(context.Background(), stock.ReserveInput{
		ProductID: prodAceite, LocationID: locBodega, Quantity: dec("30"),
	})
	require.NoError(t, err, "liberar una reserva vigente no debe fallar")
	assertDec(t, "100", rec.Sellable, "el vendible vuelve a su saldo original")
	assertDec(t, "0", rec.Reserved, "RESERVED queda en cero")
}

func TestReserve_MasQueVendible_Falla(t *testing.T) {
	store, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")

	_, err := svc.Reserve(context.Background(), stock.ReserveInput{
		ProductID: prodAceite, LocationID: locBodega, Quantity: dec("150"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, string(entity.BucketSellable), insErr.Bucket,
		"el faltante debe reportarse sobre el bucket vendible")

	rec := getRecord(t, store, prodAceite, locBodega)
	assertDec(t, "100", rec.Sellable, "el saldo no debe cambiar tras el rechazo")
	assertDec(t, "0", rec.Reserved, "no debe quedar nada reservado")
}

func TestReserve_CantidadNoPositiva_EsInvalida(t *testing.T) {
	_, svc := newStockEnv(t)
	_, err := svc.Reserve(context.Background(), stock.ReserveInput{
		ProductID: prodAceite, LocationID: locBodega, Quantity: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una reserva de cantidad cero es inválida")
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func TestQueries_GetRecord_OwnershipPorDefecto(t *testing.T) {
	store, svc := newStockEnv(t)
	receive(t, svc, prodAceite, locBodega, "100", "10.00")
	queries := stock.NewQueries(store.StockRecords(), store.Movements())

	// Sin ownership explícito la consulta resuelve la fila OWNED.
	rec, err := queries.GetRecord(context.Background(), entity.StockKey{
		ProductID: prodAceite, LocationID: locBodega,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OwnershipOwned, rec.Ownership)
	assertDec(t, "100", rec.OnHand, "la consulta devuelve el saldo vigente")

	_, err = queries.GetRecord(context.Background(), entity.StockKey{
		ProductID: prodFiltro, LocationID: locBodega,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "una fila sin movimientos no existe")
}

// ── helpers ───────────────────────────────────────────────────────────────────

// newStockEnv arma un almacén en memoria con el catálogo de prueba y el
// procesador de movimientos encima.
func newStockEnv(t *testing.T) (*memory.Store, *stock.Service) {
	t.Helper()
	store := memory.NewStore()

	products := []*entity.Product{
		{ID: prodAceite, SKU: "ACE-2050", Name: "Aceite 20W-50", UnitMeasure: "und"},
		{ID: prodFiltro, SKU: "FIL-001", Name: "Filtro de aire", UnitMeasure: "und"},
	}
	for _, p := range products {
		require.NoError(t, store.Products().Create(p))
	}

	locations := []*entity.Location{
		{ID: locBodega, Code: "BOD-01", Name: "Bodega principal", Sellable: true, Purchasable: true},
		{ID: locTienda, Code: "TDA-01", Name: "Tienda centro", Sellable: true},
		{ID: locTaller, Code: "TLL-01", Name: "Taller", Purchasable: true},
	}
	for _, l := range locations {
		require.NoError(t, store.Locations().Create(l))
	}

	svc := stock.NewService(store, store.Products(), store.Locations(), costing.DefaultScale)
	return store, svc
}

// receive aplica una recepción y exige que no falle.
func receive(t *testing.T, svc *stock.Service, productID, locationID, qty, cost string) *stock.ApplyMovementResult {
	t.Helper()
	unitCost := dec(cost)
	res, err := svc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
		ProductID:  productID,
		LocationID: locationID,
		Kind:       entity.MovementReceipt,
		Quantity:   dec(qty),
		UnitCost:   &unitCost,
		ActorID:    actorTest,
	})
	require.NoError(t, err, "la recepción de prueba no debe fallar")
	return res
}

func getRecord(t *testing.T, store *memory.Store, productID, locationID string) *entity.StockRecord {
	t.Helper()
	rec, err := store.StockRecords().Get(entity.StockKey{
		ProductID: productID, LocationID: locationID, Ownership: entity.OwnershipOwned,
	})
	require.NoError(t, err)
	require.NotNil(t, rec, "la fila de stock debe existir")
	return rec
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
