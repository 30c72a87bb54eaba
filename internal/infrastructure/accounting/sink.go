package accounting

import (
	"context"

	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/pkg/logger"
)

// Sink es el destino final de los eventos contables: un ERP, una cola de
// mensajes o cualquier consumidor externo.
type Sink interface {
	Deliver(ctx context.Context, env *event.Envelope) error
}

// LogSink escribe cada evento en el log estructurado. Es el destino por
// defecto cuando no hay un sistema contable externo configurado.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, env *event.Envelope) error {
	s.log.Info().
		Str("event_id", env.ID).
		Str("kind", env.Kind).
		RawJSON("payload", env.Payload).
		Msg("evento contable")
	return nil
}
