// Package accounting despacha los eventos del outbox transaccional hacia el
// sistema contable. La entrega es al menos una vez: si Deliver tiene éxito
// pero MarkDelivered falla, el evento se reintenta en el siguiente ciclo y el
// consumidor deduplica por el ID del sobre.
package accounting

import (
	"context"
	"time"

	"github.com/tu-usuario/stock-engine/internal/domain/repository"
	"github.com/tu-usuario/stock-engine/pkg/logger"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 100
)

// Dispatcher sondea el outbox y entrega los eventos pendientes al Sink.
type Dispatcher struct {
	outbox   repository.OutboxRepository
	sink     Sink
	log      *logger.Logger
	interval time.Duration
	batch    int
}

func NewDispatcher(outbox repository.OutboxRepository, sink Sink, log *logger.Logger, interval time.Duration, batch int) *Dispatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Dispatcher{
		outbox:   outbox,
		sink:     sink,
		log:      log.Component("dispatcher"),
		interval: interval,
		batch:    batch,
	}
}

// Run sondea el outbox hasta que el contexto se cancele.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain entrega un lote de eventos pendientes y devuelve cuántos quedaron
// confirmados. Un evento que falla se deja pendiente y no bloquea al resto.
func (d *Dispatcher) Drain(ctx context.Context) int {
	pending, err := d.outbox.ListPending(d.batch)
	if err != nil {
		d.log.Error().Err(err).Msg("listar eventos pendientes")
		return 0
	}

	delivered := 0
	for _, env := range pending {
		if ctx.Err() != nil {
			return delivered
		}
		if err := d.sink.Deliver(ctx, env); err != nil {
			d.log.Error().Err(err).
				Str("event_id", env.ID).
				Str("kind", env.Kind).
				Msg("entregar evento contable")
			continue
		}
		if err := d.outbox.MarkDelivered(env.ID); err != nil {
			d.log.Error().Err(err).
				Str("event_id", env.ID).
				Msg("marcar evento entregado")
			continue
		}
		delivered++
	}

	if delivered > 0 {
		d.log.Debug().Int("delivered", delivered).Msg("eventos contables entregados")
	}
	return delivered
}
