package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/stock-engine/internal/domain/event"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo implementación del outbox transaccional sobre PostgreSQL
// (usable con pool o tx). Append se llama dentro de la transacción del
// movimiento; ListPending y MarkDelivered los usa el despachador con el pool.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador del outbox. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Append persiste un sobre pendiente de entrega.
func (r *OutboxRepo) Append(envelope *event.Envelope) error {
	query := `
		INSERT INTO outbox_events (id, kind, payload, created_at, delivered_at)
		VALUES ($1, $2, $3, $4, NULL)`
	_, err := r.q.Exec(context.Background(), query,
		envelope.ID, envelope.Kind, envelope.Payload, envelope.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

// ListPending lista sobres sin entregar en orden de creación.
// FOR UPDATE SKIP LOCKED permite correr varios despachadores sin que se pisen.
func (r *OutboxRepo) ListPending(limit int) ([]*event.Envelope, error) {
	query := `
		SELECT id, kind, payload, created_at, delivered_at
		FROM outbox_events WHERE delivered_at IS NULL
		ORDER BY created_at LIMIT $1
		FOR UPDATE SKIP LOCKED`
	rows, err := r.q.Query(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox events: %w", err)
	}
	defer rows.Close()
	var list []*event.Envelope
	for rows.Next() {
		var e event.Envelope
		if err := rows.Scan(&e.ID, &e.Kind, &e.Payload, &e.CreatedAt, &e.DeliveredAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// MarkDelivered marca un sobre como entregado.
func (r *OutboxRepo) MarkDelivered(id string) error {
	query := `UPDATE outbox_events SET delivered_at = now() WHERE id = $1 AND delivered_at IS NULL`
	_, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("mark outbox event delivered: %w", err)
	}
	return nil
}
