package memory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación en memoria del libro mayor de stock.
type MovementRepo struct {
	a access
}

func newMovementRepo(a access) *MovementRepo { return &MovementRepo{a: a} }

// Movements devuelve el repo del libro mayor sobre el estado publicado.
func (s *Store) Movements() repository.MovementRepository {
	return newMovementRepo(liveAccess{s: s})
}

// Append agrega una copia del asiento al libro.
func (r *MovementRepo) Append(movement *entity.Movement) error {
	st, done := r.a.acquire()
	defer done()
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	st.movements = append(st.movements, cloneMovement(movement))
	return nil
}

// GetByID obtiene un asiento por ID; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	st, done := r.a.acquire()
	defer done()
	for _, m := range st.movements {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

// ListByProduct lista asientos de un producto en un rango de fechas,
// más recientes primero.
func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.listFiltered(func(m *entity.Movement) bool { return m.ProductID == productID }, from, to, limit, offset)
}

// ListByLocation lista asientos de una ubicación en un rango de fechas,
// más recientes primero.
func (r *MovementRepo) ListByLocation(locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.listFiltered(func(m *entity.Movement) bool { return m.LocationID == locationID }, from, to, limit, offset)
}

func (r *MovementRepo) listFiltered(match func(*entity.Movement) bool, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*entity.Movement
	for _, m := range st.movements {
		if !match(m) {
			continue
		}
		if from != nil && m.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && m.OccurredAt.After(*to) {
			continue
		}
		list = append(list, cloneMovement(m))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].OccurredAt.After(list[j].OccurredAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// ListByReference lista los asientos de un documento en orden de creación.
func (r *MovementRepo) ListByReference(refType, refID string) ([]*entity.Movement, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*entity.Movement
	for _, m := range st.movements {
		if m.RefType == refType && m.RefID == refID {
			list = append(list, cloneMovement(m))
		}
	}
	return list, nil
}
