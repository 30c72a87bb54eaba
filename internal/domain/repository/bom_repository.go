package repository

import "github.com/tu-usuario/stock-engine/internal/domain/entity"

// BOMRepository define el puerto de persistencia para listas de materiales.
// GetByID y GetByProduct devuelven el BOM con sus líneas ordenadas por Sequence.
type BOMRepository interface {
	Create(bom *entity.BillOfMaterials) error
	GetByID(id string) (*entity.BillOfMaterials, error)
	// GetByProduct devuelve el BOM más reciente del producto, nil si no tiene.
	GetByProduct(productID string) (*entity.BillOfMaterials, error)
	List(limit, offset int) ([]*entity.BillOfMaterials, error)
	Delete(id string) error
}
