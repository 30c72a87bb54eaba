package repository

import "github.com/tu-usuario/stock-engine/internal/domain/event"

// OutboxRepository define el puerto del outbox transaccional de eventos
// contables. Append se invoca dentro de la misma transacción que el cambio de
// stock; ListPending y MarkDelivered los usa el despachador fuera de ella.
type OutboxRepository interface {
	Append(envelope *event.Envelope) error
	ListPending(limit int) ([]*event.Envelope, error)
	MarkDelivered(id string) error
}
