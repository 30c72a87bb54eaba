package repository

import "github.com/tu-usuario/stock-engine/internal/domain/entity"

// StockRecordRepository define el puerto de persistencia para las filas de stock.
// Get y GetForUpdate devuelven (nil, nil) si la fila no existe: el procesador
// de movimientos decide si la crea.
type StockRecordRepository interface {
	Get(key entity.StockKey) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila en exclusiva (SELECT ... FOR UPDATE) hasta
	// el fin de la transacción. Toda mutación de saldos pasa por aquí.
	GetForUpdate(key entity.StockKey) (*entity.StockRecord, error)
	Upsert(record *entity.StockRecord) error
	ListByLocation(locationID string, limit, offset int) ([]*entity.StockRecord, error)
	ListByProduct(productID string) ([]*entity.StockRecord, error)
}
