package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillOfMaterials define los componentes necesarios para fabricar una unidad
// de un producto. Las órdenes de ensamble congelan una copia de sus líneas al
// crearse, de modo que editar el BOM después no altera órdenes en curso.
type BillOfMaterials struct {
	ID        string
	ProductID string
	Version   string
	Name      string
	Lines     []BOMLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BOMLine es un componente de la lista de materiales.
type BOMLine struct {
	ID          string
	BOMID       string
	Sequence    int
	ComponentID string          // producto componente
	QtyPerUnit  decimal.Decimal // cantidad por unidad de producto terminado
}
