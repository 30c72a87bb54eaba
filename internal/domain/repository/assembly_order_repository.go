package repository

import "github.com/tu-usuario/stock-engine/internal/domain/entity"

// AssemblyOrderRepository define el puerto de persistencia para órdenes de
// ensamble. Las transiciones de estado cargan la orden con GetForUpdate para
// serializar transiciones concurrentes sobre el mismo documento.
type AssemblyOrderRepository interface {
	Create(order *entity.AssemblyOrder) error
	GetByID(id string) (*entity.AssemblyOrder, error)
	GetForUpdate(id string) (*entity.AssemblyOrder, error)
	// Update persiste cabecera y líneas (las líneas se reemplazan completas).
	Update(order *entity.AssemblyOrder) error
	List(status entity.AssemblyOrderStatus, limit, offset int) ([]*entity.AssemblyOrder, error)
}
