package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	a access
}

func newProductRepo(a access) *ProductRepo { return &ProductRepo{a: a} }

// Products devuelve el repo de productos sobre el estado publicado.
func (s *Store) Products() repository.ProductRepository {
	return newProductRepo(liveAccess{s: s})
}

// Create guarda un producto nuevo. El SKU debe ser único.
func (r *ProductRepo) Create(product *entity.Product) error {
	st, done := r.a.acquire()
	defer done()
	for _, p := range st.products {
		if p.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	st.products[product.ID] = cloneProduct(product)
	return nil
}

// GetByID obtiene un producto; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	st, done := r.a.acquire()
	defer done()
	p, ok := st.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

// GetBySKU obtiene un producto por su código; (nil, nil) si no existe.
func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	st, done := r.a.acquire()
	defer done()
	for _, p := range st.products {
		if p.SKU == sku {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

// Update reemplaza un producto existente.
func (r *ProductRepo) Update(product *entity.Product) error {
	st, done := r.a.acquire()
	defer done()
	if _, ok := st.products[product.ID]; !ok {
		return nil
	}
	st.products[product.ID] = cloneProduct(product)
	return nil
}

// List lista productos, más recientes primero.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	st, done := r.a.acquire()
	defer done()
	list := make([]*entity.Product, 0, len(st.products))
	for _, p := range st.products {
		list = append(list, cloneProduct(p))
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

// Delete elimina un producto.
func (r *ProductRepo) Delete(id string) error {
	st, done := r.a.acquire()
	defer done()
	delete(st.products, id)
	return nil
}
