package accounting_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/accounting"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-engine/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del despachador de outbox: entrega al menos una vez, reintento de
// eventos fallidos y apagado limpio.
// ──────────────────────────────────────────────────────────────────────────────

func TestDrain_EntregaYMarcaLosPendientes(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Outbox().Append(testEnvelope(event.KindMovementApplied)))
	}
	sink := &captureSink{}
	d := accounting.NewDispatcher(store.Outbox(), sink, logger.Nop(), 0, 0)

	delivered := d.Drain(context.Background())

	assert.Equal(t, 3, delivered, "los tres eventos deben confirmarse")
	assert.Len(t, sink.delivered, 3, "el sink debe recibir los tres sobres")
	pending, err := store.Outbox().ListPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending, "no deben quedar pendientes tras el drenaje")

	// Un segundo drenaje no reentrega nada.
	assert.Zero(t, d.Drain(context.Background()), "sin pendientes el drenaje es vacío")
	assert.Len(t, sink.delivered, 3)
}

func TestDrain_SinkCaido_DejaElEventoPendiente(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Outbox().Append(testEnvelope(event.KindPayableDue)))
	sink := &captureSink{fail: true}
	d := accounting.NewDispatcher(store.Outbox(), sink, logger.Nop(), 0, 0)

	assert.Zero(t, d.Drain(context.Background()), "con el sink caído nada se confirma")
	pending, err := store.Outbox().ListPending(10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "el evento sigue pendiente para el próximo ciclo")

	// Cuando el sink se recupera, el mismo evento se entrega.
	sink.fail = false
	assert.Equal(t, 1, d.Drain(context.Background()))
	pending, err = store.Outbox().ListPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDrain_RespetaElTamanoDeLote(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Outbox().Append(testEnvelope(event.KindMovementApplied)))
	}
	sink := &captureSink{}
	d := accounting.NewDispatcher(store.Outbox(), sink, logger.Nop(), 0, 2)

	assert.Equal(t, 2, d.Drain(context.Background()), "el primer lote entrega hasta el límite")
	assert.Equal(t, 1, d.Drain(context.Background()), "el segundo lote entrega el resto")
}

func TestRun_TerminaAlCancelarElContexto(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Outbox().Append(testEnvelope(event.KindMovementApplied)))
	sink := &captureSink{}
	d := accounting.NewDispatcher(store.Outbox(), sink, logger.Nop(), 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	// El sondeo periódico termina entregando el evento.
	assert.Eventually(t, func() bool {
		pending, err := store.Outbox().ListPending(10)
		return err == nil && len(pending) == 0
	}, time.Second, 10*time.Millisecond, "el despachador debe drenar el outbox")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}

func TestLogSink_EntregaSinError(t *testing.T) {
	sink := accounting.NewLogSink(logger.Nop())
	err := sink.Deliver(context.Background(), testEnvelope(event.KindMovementApplied))
	assert.NoError(t, err)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// captureSink acumula los sobres entregados; con fail simula un sistema
// contable fuera de línea.
type captureSink struct {
	delivered []*event.Envelope
	fail      bool
}

func (s *captureSink) Deliver(ctx context.Context, env *event.Envelope) error {
	if s.fail {
		return errors.New("contabilidad fuera de línea")
	}
	s.delivered = append(s.delivered, env)
	return nil
}

func testEnvelope(kind string) *event.Envelope {
	return &event.Envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   json.RawMessage(`{"movement_id":"mov-001"}`),
		CreatedAt: time.Now(),
	}
}
