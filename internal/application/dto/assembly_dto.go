package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAssemblyOrderRequest body para crear una orden de ensamble en borrador.
type CreateAssemblyOrderRequest struct {
	Number     string          `json:"number,omitempty"`
	ProductID  string          `json:"product_id" validate:"required"`
	BOMID      string          `json:"bom_id,omitempty"`
	LocationID string          `json:"location_id,omitempty"`
	Ownership  string          `json:"ownership,omitempty"`
	OrderedQty decimal.Decimal `json:"ordered_qty"`
	Note       string          `json:"note,omitempty"`
}

// UpdateAssemblyOrderRequest body para editar una orden en borrador.
// Solo los campos presentes se modifican.
type UpdateAssemblyOrderRequest struct {
	LocationID *string          `json:"location_id,omitempty"`
	OrderedQty *decimal.Decimal `json:"ordered_qty,omitempty"`
	Note       *string          `json:"note,omitempty"`
}

// ReportProductionRequest body para reportar producción de una orden en curso.
type ReportProductionRequest struct {
	QtyGood decimal.Decimal `json:"qty_good"`
	Note    string          `json:"note,omitempty"`
}

// AssemblyOrderLineResponse línea congelada de la orden con su avance de consumo.
type AssemblyOrderLineResponse struct {
	ID          string          `json:"id"`
	ComponentID string          `json:"component_id"`
	QtyPerUnit  decimal.Decimal `json:"qty_per_unit"`
	PlannedQty  decimal.Decimal `json:"planned_qty"`
	ConsumedQty decimal.Decimal `json:"consumed_qty"`
}

// AssemblyOrderResponse salida de una orden de ensamble.
type AssemblyOrderResponse struct {
	ID          string                      `json:"id"`
	Number      string                      `json:"number"`
	ProductID   string                      `json:"product_id"`
	BOMID       string                      `json:"bom_id"`
	LocationID  string                      `json:"location_id,omitempty"`
	Ownership   string                      `json:"ownership"`
	OrderedQty  decimal.Decimal             `json:"ordered_qty"`
	ProducedQty decimal.Decimal             `json:"produced_qty"`
	Status      string                      `json:"status"`
	Note        string                      `json:"note,omitempty"`
	Lines       []AssemblyOrderLineResponse `json:"lines"`
	ReleasedAt  *time.Time                  `json:"released_at,omitempty"`
	StartedAt   *time.Time                  `json:"started_at,omitempty"`
	ClosedAt    *time.Time                  `json:"closed_at,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// AssemblyOrderListResponse lista paginada de órdenes.
type AssemblyOrderListResponse struct {
	Items []AssemblyOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
