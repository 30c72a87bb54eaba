package receipt_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-engine/internal/application/receipt"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/costing"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de recepciones de mercancía: borrador, confirmación transaccional y el
// evento de cuenta por pagar que nace cuando la recepción viene de una orden
// de compra con proveedor.
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodAceite   = "prod-aceite"
	prodFiltro   = "prod-filtro"
	locBodega    = "loc-bodega" // recibe y vende
	locTienda    = "loc-tienda" // solo vende
	actorTest    = "user-pruebas"
	testTermDays = 30
)

func TestCreateDraft_GeneraNumeroYLineas(t *testing.T) {
	_, uc := newReceiptEnv(t)

	r, err := uc.CreateDraft(context.Background(), receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines: []receipt.LineInput{
			{ProductID: prodAceite, Quantity: dec("10"), UnitCost: dec("10.00")},
			{ProductID: prodFiltro, Quantity: dec("4"), UnitCost: dec("2.55")},
		},
		ActorID: actorTest,
	})
	require.NoError(t, err, "crear un borrador válido no debe fallar")

	assert.Equal(t, entity.ReceiptDraft, r.Status)
	assert.Regexp(t, "^GR-", r.Number, "sin número explícito se genera uno con prefijo GR-")
	require.Len(t, r.Lines, 2)
	for _, ln := range r.Lines {
		assert.NotEmpty(t, ln.ID, "cada línea recibe su propio ID")
		assert.Equal(t, r.ID, ln.ReceiptID, "cada línea apunta a su recepción")
	}
}

func TestCreateDraft_CantidadNoPositiva_EsInvalida(t *testing.T) {
	_, uc := newReceiptEnv(t)
	_, err := uc.CreateDraft(context.Background(), receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: decimal.Zero, UnitCost: dec("10")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateDraft_CostoNegativo_EsInvalido(t *testing.T) {
	_, uc := newReceiptEnv(t)
	_, err := uc.CreateDraft(context.Background(), receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("1"), UnitCost: dec("-0.01")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateDraft_ProductoInexistente_Falla(t *testing.T) {
	_, uc := newReceiptEnv(t)
	_, err := uc.CreateDraft(context.Background(), receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines:      []receipt.LineInput{{ProductID: "prod-fantasma", Quantity: dec("1"), UnitCost: dec("10")}},
	})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

// ── Confirmación ──────────────────────────────────────────────────────────────

func TestConfirm_AsientaUnMovimientoPorLinea(t *testing.T) {
	store, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines: []receipt.LineInput{
			{ProductID: prodAceite, Quantity: dec("10"), UnitCost: dec("10.00")},
			{ProductID: prodFiltro, Quantity: dec("4"), UnitCost: dec("2.55")},
		},
	})

	confirmed, err := uc.Confirm(context.Background(), r.ID, actorTest)
	require.NoError(t, err, "confirmar un borrador completo no debe fallar")

	assert.Equal(t, entity.ReceiptConfirmed, confirmed.Status)
	assert.Equal(t, actorTest, confirmed.ReceivedBy)
	require.NotNil(t, confirmed.ReceivedAt, "confirmar debe sellar ReceivedAt")

	// El stock de cada producto queda actualizado al costo de su línea.
	aceite := getRecord(t, store, prodAceite)
	assertDec(t, "10", aceite.OnHand, "saldo del aceite tras confirmar")
	assertDec(t, "10.00", aceite.AverageCost, "costo promedio del aceite")
	filtro := getRecord(t, store, prodFiltro)
	assertDec(t, "4", filtro.OnHand, "saldo del filtro tras confirmar")
	assertDec(t, "2.55", filtro.AverageCost, "costo promedio del filtro")

	// El libro registra un RECEIPT por línea apuntando al documento.
	movs, err := store.Movements().ListByReference(entity.RefTypeGoodsReceipt, r.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2, "un asiento por línea")
	for _, m := range movs {
		assert.Equal(t, entity.MovementReceipt, m.Kind)
		assert.Equal(t, actorTest, m.CreatedBy)
	}

	// Sin orden de compra no hay cuenta por pagar: solo eventos de movimiento.
	pending, err := store.Outbox().ListPending(50)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, env := range pending {
		assert.Equal(t, event.KindMovementApplied, env.Kind)
	}
}

func TestConfirm_CompraConProveedor_DejaCuentaPorPagar(t *testing.T) {
	store, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		SupplierID: "prov-01",
		RefType:    receipt.RefTypePurchaseOrder,
		RefID:      "po-77",
		Lines: []receipt.LineInput{
			{ProductID: prodAceite, Quantity: dec("10"), UnitCost: dec("10.00")},
			{ProductID: prodFiltro, Quantity: dec("4"), UnitCost: dec("2.55")},
		},
	})

	confirmed, err := uc.Confirm(context.Background(), r.ID, actorTest)
	require.NoError(t, err)

	pending, err := store.Outbox().ListPending(50)
	require.NoError(t, err)
	require.Len(t, pending, 3, "dos movimientos más la cuenta por pagar")

	payable := findPayable(t, pending)
	var due event.PayableDue
	require.NoError(t, json.Unmarshal(payable.Payload, &due))
	assert.Equal(t, r.ID, due.ReceiptID)
	assert.Equal(t, "prov-01", due.SupplierID)
	assert.Equal(t, "po-77", due.PurchaseOrderID)
	assertDec(t, "110.20", due.Amount, "monto = 10 × 10.00 + 4 × 2.55")
	assert.True(t, due.DueDate.Equal(confirmed.ReceivedAt.AddDate(0, 0, testTermDays)),
		"el vencimiento es la fecha de recepción más el plazo del proveedor")
}

func TestConfirm_SinProveedorOSinOrdenDeCompra_NoDejaCuentaPorPagar(t *testing.T) {
	store, uc := newReceiptEnv(t)

	// Orden de compra sin proveedor: no hay a quién pagarle.
	sinProveedor := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		RefType:    receipt.RefTypePurchaseOrder,
		RefID:      "po-78",
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("1"), UnitCost: dec("10")}},
	})
	_, err := uc.Confirm(context.Background(), sinProveedor.ID, actorTest)
	require.NoError(t, err)

	// Proveedor sin orden de compra: una devolución de cliente, por ejemplo.
	sinOrden := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		SupplierID: "prov-01",
		RefType:    "sales_return",
		RefID:      "sr-01",
		Lines:      []receipt.LineInput{{ProductID: prodFiltro, Quantity: dec("1"), UnitCost: dec("2.55")}},
	})
	_, err = uc.Confirm(context.Background(), sinOrden.ID, actorTest)
	require.NoError(t, err)

	pending, err := store.Outbox().ListPending(50)
	require.NoError(t, err)
	for _, env := range pending {
		assert.Equal(t, event.KindMovementApplied, env.Kind,
			"ninguna de las dos recepciones debe generar cuenta por pagar")
	}
}

func TestConfirm_DosVeces_EsTransicionInvalida(t *testing.T) {
	store, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("10"), UnitCost: dec("10.00")}},
	})
	_, err := uc.Confirm(context.Background(), r.ID, actorTest)
	require.NoError(t, err)

	_, err = uc.Confirm(context.Background(), r.ID, actorTest)
	require.Error(t, err, "confirmar dos veces debe rechazarse")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// El rechazo no duplica el stock ni los asientos.
	rec := getRecord(t, store, prodAceite)
	assertDec(t, "10", rec.OnHand, "el stock no debe duplicarse")
	movs, err := store.Movements().ListByReference(entity.RefTypeGoodsReceipt, r.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestConfirm_SinLineas_Falla(t *testing.T) {
	_, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{LocationID: locBodega})

	_, err := uc.Confirm(context.Background(), r.ID, actorTest)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una recepción sin líneas no se confirma")
}

func TestConfirm_UbicacionQueNoRecibe_Falla(t *testing.T) {
	_, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locTienda,
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("1"), UnitCost: dec("10")}},
	})

	_, err := uc.Confirm(context.Background(), r.ID, actorTest)
	assert.ErrorIs(t, err, domain.ErrLocationNotConfigured)
}

func TestConfirm_SinUbicacion_Falla(t *testing.T) {
	_, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		Lines: []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("1"), UnitCost: dec("10")}},
	})

	_, err := uc.Confirm(context.Background(), r.ID, actorTest)
	assert.ErrorIs(t, err, domain.ErrLocationNotConfigured)
}

// ── Edición del borrador ──────────────────────────────────────────────────────

func TestUpdateDraft_ReemplazaLineas(t *testing.T) {
	_, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("1"), UnitCost: dec("10")}},
	})

	updated, err := uc.UpdateDraft(context.Background(), r.ID, receipt.UpdateDraftInput{
		Lines: []receipt.LineInput{
			{ProductID: prodAceite, Quantity: dec("5"), UnitCost: dec("9.50")},
			{ProductID: prodFiltro, Quantity: dec("2"), UnitCost: dec("2.55")},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2, "las líneas nuevas reemplazan a las anteriores")
	assert.Equal(t, r.ID, updated.Lines[1].ReceiptID)

	// Un cambio que no trae líneas las deja intactas.
	note := "llegó en la tarde"
	updated, err = uc.UpdateDraft(context.Background(), r.ID, receipt.UpdateDraftInput{Note: &note})
	require.NoError(t, err)
	assert.Len(t, updated.Lines, 2)
	assert.Equal(t, note, updated.Note)
}

func TestUpdateDraft_Confirmada_EsInvalido(t *testing.T) {
	_, uc := newReceiptEnv(t)
	r := draftReceipt(t, uc, receipt.CreateDraftInput{
		LocationID: locBodega,
		Lines:      []receipt.LineInput{{ProductID: prodAceite, Quantity: dec("1"), UnitCost: dec("10")}},
	})
	_, err := uc.Confirm(context.Background(), r.ID, actorTest)
	require.NoError(t, err)

	note := "tarde"
	_, err = uc.UpdateDraft(context.Background(), r.ID, receipt.UpdateDraftInput{Note: &note})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "una recepción confirmada es inmutable")
}

// ── helpers ───────────────────────────────────────────────────────────────────

func newReceiptEnv(t *testing.T) (*memory.Store, *receipt.UseCase) {
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
	}
	for _, l := range locations {
		require.NoError(t, store.Locations().Create(l))
	}

	svc := stock.NewService(store, store.Products(), store.Locations(), costing.DefaultScale)
	uc := receipt.NewUseCase(store, svc, store.GoodsReceipts(), store.Products(),
		store.Locations(), costing.DefaultScale, testTermDays)
	return store, uc
}

func draftReceipt(t *testing.T, uc *receipt.UseCase, input receipt.CreateDraftInput) *entity.GoodsReceipt {
	t.Helper()
	if input.ActorID == "" {
		input.ActorID = actorTest
	}
	r, err := uc.CreateDraft(context.Background(), input)
	require.NoError(t, err, "crear el borrador de prueba no debe fallar")
	return r
}

func getRecord(t *testing.T, store *memory.Store, productID string) *entity.StockRecord {
	t.Helper()
	rec, err := store.StockRecords().Get(entity.StockKey{
		ProductID: productID, LocationID: locBodega, Ownership: entity.OwnershipOwned,
	})
	require.NoError(t, err)
	require.NotNil(t, rec, "la fila de stock debe existir")
	return rec
}

func findPayable(t *testing.T, envs []*event.Envelope) *event.Envelope {
	t.Helper()
	for _, env := range envs {
		if env.Kind == event.KindPayableDue {
			return env
		}
	}
	require.FailNow(t, "no se encontró el evento de cuenta por pagar")
	return nil
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
