package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación en memoria de StockRecordRepository.
type StockRecordRepo struct {
	a access
}

func newStockRecordRepo(a access) *StockRecordRepo { return &StockRecordRepo{a: a} }

// StockRecords devuelve el repo de filas de stock sobre el estado publicado.
func (s *Store) StockRecords() repository.StockRecordRepository {
	return newStockRecordRepo(liveAccess{s: s})
}

// Get obtiene la fila de stock; (nil, nil) si no existe.
func (r *StockRecordRepo) Get(key entity.StockKey) (*entity.StockRecord, error) {
	st, done := r.a.acquire()
	defer done()
	rec, ok := st.stock[key]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// GetForUpdate equivale a Get: el mutex del almacén ya serializa la transacción.
func (r *StockRecordRepo) GetForUpdate(key entity.StockKey) (*entity.StockRecord, error) {
	return r.Get(key)
}

// Upsert guarda una copia de la fila.
func (r *StockRecordRepo) Upsert(record *entity.StockRecord) error {
	st, done := r.a.acquire()
	defer done()
	st.stock[record.Key()] = cloneRecord(record)
	return nil
}

// ListByLocation lista filas de una ubicación ordenadas por producto y propiedad.
func (r *StockRecordRepo) ListByLocation(locationID string, limit, offset int) ([]*entity.StockRecord, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*entity.StockRecord
	for _, rec := range st.stock {
		if rec.LocationID == locationID {
			list = append(list, cloneRecord(rec))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key().Less(list[j].Key()) })
	return paginateRecords(list, limit, offset), nil
}

// ListByProduct lista filas de un producto ordenadas por ubicación y propiedad.
func (r *StockRecordRepo) ListByProduct(productID string) ([]*entity.StockRecord, error) {
	st, done := r.a.acquire()
	defer done()
	var list []*entity.StockRecord
	for _, rec := range st.stock {
		if rec.ProductID == productID {
			list = append(list, cloneRecord(rec))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key().Less(list[j].Key()) })
	return list, nil
}

func paginateRecords(list []*entity.StockRecord, limit, offset int) []*entity.StockRecord {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
