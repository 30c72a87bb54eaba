package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de ensamble.
type AssemblyOrderStatus string

const (
	AssemblyDraft      AssemblyOrderStatus = "DRAFT"
	AssemblyReleased   AssemblyOrderStatus = "RELEASED"
	AssemblyInProgress AssemblyOrderStatus = "IN_PROGRESS"
	AssemblyCompleted  AssemblyOrderStatus = "COMPLETED"
	AssemblyCancelled  AssemblyOrderStatus = "CANCELLED"
)

// Terminal reporta si el estado ya no admite transiciones.
func (s AssemblyOrderStatus) Terminal() bool {
	return s == AssemblyCompleted || s == AssemblyCancelled
}

// AssemblyOrder es una orden de producción: fabricar OrderedQty unidades de
// ProductID en LocationID consumiendo componentes según las líneas. Al liberar
// la orden los componentes pasan de SELLABLE a ALLOCATED; reportar producción
// los consume desde ALLOCATED y da entrada al producto terminado.
type AssemblyOrder struct {
	ID          string
	Number      string
	ProductID   string
	BOMID       string
	LocationID  string
	Ownership   OwnershipStatus
	OrderedQty  decimal.Decimal
	ProducedQty decimal.Decimal
	Status      AssemblyOrderStatus
	Note        string
	Lines       []AssemblyOrderLine
	ReleasedAt  *time.Time
	StartedAt   *time.Time
	ClosedAt    *time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssemblyOrderLine es el plan de consumo de un componente, derivado del BOM
// al crear la orden (PlannedQty = QtyPerUnit × OrderedQty).
type AssemblyOrderLine struct {
	ID          string
	OrderID     string
	ComponentID string
	QtyPerUnit  decimal.Decimal
	PlannedQty  decimal.Decimal
	ConsumedQty decimal.Decimal
}
