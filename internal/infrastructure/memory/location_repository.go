package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación en memoria de LocationRepository.
type LocationRepo struct {
	a access
}

func newLocationRepo(a access) *LocationRepo { return &LocationRepo{a: a} }

// Locations devuelve el repo de ubicaciones sobre el estado publicado.
func (s *Store) Locations() repository.LocationRepository {
	return newLocationRepo(liveAccess{s: s})
}

// Create guarda una ubicación nueva. El código debe ser único.
func (r *LocationRepo) Create(location *entity.Location) error {
	st, done := r.a.acquire()
	defer done()
	for _, l := range st.locations {
		if l.Code == location.Code {
			return domain.ErrDuplicate
		}
	}
	st.locations[location.ID] = cloneLocation(location)
	return nil
}

// GetByID obtiene una ubicación; (nil, nil) si no existe.
func (r *LocationRepo) GetByID(id string) (*entity.Location, error) {
	st, done := r.a.acquire()
	defer done()
	l, ok := st.locations[id]
	if !ok {
		return nil, nil
	}
	return cloneLocation(l), nil
}

// GetByCode obtiene una ubicación por su código; (nil, nil) si no existe.
func (r *LocationRepo) GetByCode(code string) (*entity.Location, error) {
	st, done := r.a.acquire()
	defer done()
	for _, l := range st.locations {
		if l.Code == code {
			return cloneLocation(l), nil
		}
	}
	return nil, nil
}

// Update reemplaza una ubicación existente.
func (r *LocationRepo) Update(location *entity.Location) error {
	st, done := r.a.acquire()
	defer done()
	if _, ok := st.locations[location.ID]; !ok {
		return nil
	}
	st.locations[location.ID] = cloneLocation(location)
	return nil
}

// List lista ubicaciones ordenadas por código.
func (r *LocationRepo) List(limit, offset int) ([]*entity.Location, error) {
	st, done := r.a.acquire()
	defer done()
	list := make([]*entity.Location, 0, len(st.locations))
	for _, l := range st.locations {
		list = append(list, cloneLocation(l))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// Delete elimina una ubicación.
func (r *LocationRepo) Delete(id string) error {
	st, done := r.a.acquire()
	defer done()
	delete(st.locations, id)
	return nil
}
