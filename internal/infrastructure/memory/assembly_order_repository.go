package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.AssemblyOrderRepository = (*AssemblyOrderRepo)(nil)

// AssemblyOrderRepo implementación en memoria de AssemblyOrderRepository.
type AssemblyOrderRepo struct {
	a access
}

func newAssemblyOrderRepo(a access) *AssemblyOrderRepo { return &AssemblyOrderRepo{a: a} }

// AssemblyOrders devuelve el repo de órdenes sobre el estado publicado.
func (s *Store) AssemblyOrders() repository.AssemblyOrderRepository {
	return newAssemblyOrderRepo(liveAccess{s: s})
}

// Create guarda la orden con sus líneas.
func (r *AssemblyOrderRepo) Create(order *entity.AssemblyOrder) error {
	st, done := r.a.acquire()
	defer done()
	st.orders[order.ID] = cloneOrder(order)
	return nil
}

// GetByID obtiene la orden; (nil, nil) si no existe.
func (r *AssemblyOrderRepo) GetByID(id string) (*entity.AssemblyOrder, error) {
	st, done := r.a.acquire()
	defer done()
	o, ok := st.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

// GetForUpdate equivale a GetByID: el mutex del almacén ya serializa la transacción.
func (r *AssemblyOrderRepo) GetForUpdate(id string) (*entity.AssemblyOrder, error) {
	return r.GetByID(id)
}

// Update reemplaza cabecera y líneas.
func (r *AssemblyOrderRepo) Update(order *entity.AssemblyOrder) error {
	st, done := r.a.acquire()
	defer done()
	st.orders[order.ID] = cloneOrder(order)
	return nil
}

// List lista órdenes, opcionalmente filtradas por estado, más recientes primero.
func (r *AssemblyOrderRepo) List(status entity.AssemblyOrderStatus, limit, offset int) ([]*entity.AssemblyOrder, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*entity.AssemblyOrder
	for _, o := range st.orders {
		if status != "" && o.Status != status {
			continue
		}
		list = append(list, cloneOrder(o))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
