package memory

import (
	"time"

	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo implementación en memoria del outbox transaccional.
type OutboxRepo struct {
	a access
}

func newOutboxRepo(a access) *OutboxRepo { return &OutboxRepo{a: a} }

// Outbox devuelve el repo del outbox sobre el estado publicado.
func (s *Store) Outbox() repository.OutboxRepository {
	return newOutboxRepo(liveAccess{s: s})
}

// Append agrega una copia del sobre pendiente.
func (r *OutboxRepo) Append(envelope *event.Envelope) error {
	st, done := r.a.acquire()
	defer done()
	st.outbox = append(st.outbox, cloneEnvelope(envelope))
	return nil
}

// ListPending lista sobres sin entregar en orden de creación.
func (r *OutboxRepo) ListPending(limit int) ([]*event.Envelope, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*event.Envelope
	for _, e := range st.outbox {
		if e.DeliveredAt == nil {
			list = append(list, cloneEnvelope(e))
			if limit > 0 && len(list) >= limit {
				break
			}
		}
	}
	return list, nil
}

// MarkDelivered marca un sobre como entregado.
func (r *OutboxRepo) MarkDelivered(id string) error {
	st, done := r.a.acquire()
	defer done()
	for i, e := range st.outbox {
		if e.ID == id && e.DeliveredAt == nil {
			cp := cloneEnvelope(e)
			now := time.Now()
			cp.DeliveredAt = &now
			st.outbox[i] = cp
			return nil
		}
	}
	return nil
}
