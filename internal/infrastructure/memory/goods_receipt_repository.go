package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.GoodsReceiptRepository = (*GoodsReceiptRepo)(nil)

// GoodsReceiptRepo implementación en memoria de GoodsReceiptRepository.
type GoodsReceiptRepo struct {
	a access
}

func newGoodsReceiptRepo(a access) *GoodsReceiptRepo { return &GoodsReceiptRepo{a: a} }

// GoodsReceipts devuelve el repo de recepciones sobre el estado publicado.
func (s *Store) GoodsReceipts() repository.GoodsReceiptRepository {
	return newGoodsReceiptRepo(liveAccess{s: s})
}

// Create guarda la recepción con sus líneas.
func (r *GoodsReceiptRepo) Create(receipt *entity.GoodsReceipt) error {
	st, done := r.a.acquire()
	defer done()
	st.receipts[receipt.ID] = cloneReceipt(receipt)
	return nil
}

// GetByID obtiene la recepción; (nil, nil) si no existe.
func (r *GoodsReceiptRepo) GetByID(id string) (*entity.GoodsReceipt, error) {
	st, done := r.a.acquire()
	defer done()
	g, ok := st.receipts[id]
	if !ok {
		return nil, nil
	}
	return cloneReceipt(g), nil
}

// GetForUpdate equivale a GetByID: el mutex del almacén ya serializa la transacción.
func (r *GoodsReceiptRepo) GetForUpdate(id string) (*entity.GoodsReceipt, error) {
	return r.GetByID(id)
}

// Update reemplaza cabecera y líneas.
func (r *GoodsReceiptRepo) Update(receipt *entity.GoodsReceipt) error {
	st, done := r.a.acquire()
	defer done()
	st.receipts[receipt.ID] = cloneReceipt(receipt)
	return nil
}

// List lista recepciones, opcionalmente filtradas por estado, más recientes primero.
func (r *GoodsReceiptRepo) List(status entity.GoodsReceiptStatus, limit, offset int) ([]*entity.GoodsReceipt, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*entity.GoodsReceipt
	for _, g := range st.receipts {
		if status != "" && g.Status != status {
			continue
		}
		list = append(list, cloneReceipt(g))
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
