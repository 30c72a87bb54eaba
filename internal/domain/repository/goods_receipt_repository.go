package repository

import "github.com/tu-usuario/stock-engine/internal/domain/entity"

// GoodsReceiptRepository define el puerto de persistencia para recepciones.
// La confirmación carga el documento con GetForUpdate para que dos
// confirmaciones concurrentes no puedan pasar ambas la verificación de estado.
type GoodsReceiptRepository interface {
	Create(receipt *entity.GoodsReceipt) error
	GetByID(id string) (*entity.GoodsReceipt, error)
	GetForUpdate(id string) (*entity.GoodsReceipt, error)
	// Update persiste cabecera y líneas (las líneas se reemplazan completas).
	Update(receipt *entity.GoodsReceipt) error
	List(status entity.GoodsReceiptStatus, limit, offset int) ([]*entity.GoodsReceipt, error)
}
