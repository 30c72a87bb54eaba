package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del almacén en memoria: mismas garantías transaccionales que el
// adaptador PostgreSQL, de las que dependen todos los tests de casos de uso.
// ──────────────────────────────────────────────────────────────────────────────

var testKey = entity.StockKey{
	ProductID:  "prod-01",
	LocationID: "loc-01",
	Ownership:  entity.OwnershipOwned,
}

func TestRun_ErrorRevierteTodaLaTransaccion(t *testing.T) {
	store := memory.NewStore()

	errBoom := errors.New("falla simulada")
	err := store.Run(context.Background(), func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		require.NoError(t, stockRepo.Upsert(testRecord("10")))
		require.NoError(t, movRepo.Append(testMovement()))
		require.NoError(t, outboxRepo.Append(&event.Envelope{
			ID: "env-01", Kind: event.KindMovementApplied, CreatedAt: time.Now(),
		}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom, "Run debe propagar el error del callback")

	// Nada de lo escrito dentro de la transacción fallida es visible.
	rec, err := store.StockRecords().Get(testKey)
	require.NoError(t, err)
	assert.Nil(t, rec, "la fila de stock no debe publicarse")
	movs, err := store.Movements().ListByProduct(testKey.ProductID, nil, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, movs, "el asiento no debe publicarse")
	pending, err := store.Outbox().ListPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending, "el evento no debe publicarse")
}

func TestRun_ExitoPublicaTodoJunto(t *testing.T) {
	store := memory.NewStore()

	err := store.Run(context.Background(), func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		if err := stockRepo.Upsert(testRecord("10")); err != nil {
			return err
		}
		if err := movRepo.Append(testMovement()); err != nil {
			return err
		}
		return outboxRepo.Append(&event.Envelope{
			ID: "env-01", Kind: event.KindMovementApplied, CreatedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	rec, err := store.StockRecords().Get(testKey)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.OnHand.Equal(decimal.RequireFromString("10")))
	movs, err := store.Movements().ListByProduct(testKey.ProductID, nil, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
	pending, err := store.Outbox().ListPending(10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRepos_DevuelvenCopias(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.StockRecords().Upsert(testRecord("10")))

	// Mutar lo leído no contamina el estado guardado.
	leido, err := store.StockRecords().Get(testKey)
	require.NoError(t, err)
	leido.OnHand = decimal.RequireFromString("999")

	fresco, err := store.StockRecords().Get(testKey)
	require.NoError(t, err)
	assert.True(t, fresco.OnHand.Equal(decimal.RequireFromString("10")),
		"mutar la copia leída no debe afectar al almacén")

	// Mutar lo escrito después del Upsert tampoco.
	original := testRecord("10")
	require.NoError(t, store.StockRecords().Upsert(original))
	original.OnHand = decimal.RequireFromString("777")
	fresco, err = store.StockRecords().Get(testKey)
	require.NoError(t, err)
	assert.True(t, fresco.OnHand.Equal(decimal.RequireFromString("10")),
		"mutar el puntero original después de escribir no debe afectar al almacén")
}

func TestGetForUpdate_FilaInexistente_DevuelveNil(t *testing.T) {
	store := memory.NewStore()
	err := store.Run(context.Background(), func(
		stockRepo repository.StockRecordRepository,
		_ repository.MovementRepository,
		_ repository.OutboxRepository,
	) error {
		rec, err := stockRepo.GetForUpdate(testKey)
		require.NoError(t, err)
		assert.Nil(t, rec, "una fila que nunca existió se reporta como nil, no como error")
		return nil
	})
	require.NoError(t, err)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func testRecord(onHand string) *entity.StockRecord {
	qty := decimal.RequireFromString(onHand)
	return &entity.StockRecord{
		ProductID:  testKey.ProductID,
		LocationID: testKey.LocationID,
		Ownership:  testKey.Ownership,
		OnHand:     qty,
		Sellable:   qty,
		UpdatedAt:  time.Now(),
	}
}

func testMovement() *entity.Movement {
	return &entity.Movement{
		ID:         "mov-01",
		ProductID:  testKey.ProductID,
		LocationID: testKey.LocationID,
		Ownership:  testKey.Ownership,
		Kind:       entity.MovementReceipt,
		Bucket:     entity.BucketSellable,
		Quantity:   decimal.RequireFromString("10"),
		UnitCost:   decimal.RequireFromString("10.00"),
		TotalCost:  decimal.RequireFromString("100.00"),
		OccurredAt: time.Now(),
		CreatedAt:  time.Now(),
	}
}
