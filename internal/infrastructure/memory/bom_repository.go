package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación en memoria de BOMRepository.
type BOMRepo struct {
	a access
}

func newBOMRepo(a access) *BOMRepo { return &BOMRepo{a: a} }

// BOMs devuelve el repo de listas de materiales sobre el estado publicado.
func (s *Store) BOMs() repository.BOMRepository {
	return newBOMRepo(liveAccess{s: s})
}

// Create guarda un BOM con sus líneas.
func (r *BOMRepo) Create(bom *entity.BillOfMaterials) error {
	st, done := r.a.acquire()
	defer done()
	st.boms[bom.ID] = cloneBOM(bom)
	return nil
}

// GetByID obtiene un BOM; (nil, nil) si no existe.
func (r *BOMRepo) GetByID(id string) (*entity.BillOfMaterials, error) {
	st, done := r.a.acquire()
	defer done()
	b, ok := st.boms[id]
	if !ok {
		return nil, nil
	}
	return cloneBOM(b), nil
}

// GetByProduct obtiene el BOM más reciente del producto; (nil, nil) si no tiene.
func (r *BOMRepo) GetByProduct(productID string) (*entity.BillOfMaterials, error) {
	st, done := r.a.acquire()
	defer done()
	var latest *entity.BillOfMaterials
	for _, b := range st.boms {
		if b.ProductID != productID {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneBOM(latest), nil
}

// List lista BOMs, más recientes primero.
func (r *BOMRepo) List(limit, offset int) ([]*entity.BillOfMaterials, error) {
	st, done := r.a.acquire()
	defer done()
	list := make([]*entity.BillOfMaterials, 0, len(st.boms))
	for _, b := range st.boms {
		list = append(list, cloneBOM(b))
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

// Delete elimina un BOM.
func (r *BOMRepo) Delete(id string) error {
	st, done := r.a.acquire()
	defer done()
	delete(st.boms, id)
	return nil
}
