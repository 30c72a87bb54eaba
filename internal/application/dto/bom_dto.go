package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLineRequest línea de receta: componente y cantidad por unidad producida.
type BOMLineRequest struct {
	ComponentID string          `json:"component_id" validate:"required"`
	QtyPerUnit  decimal.Decimal `json:"qty_per_unit"`
}

// CreateBOMRequest body para crear una lista de materiales.
type CreateBOMRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Version   string           `json:"version,omitempty"`
	Name      string           `json:"name,omitempty"`
	Lines     []BOMLineRequest `json:"lines" validate:"required,min=1"`
}

// BOMLineResponse línea de receta en salida.
type BOMLineResponse struct {
	ID          string          `json:"id"`
	Sequence    int             `json:"sequence"`
	ComponentID string          `json:"component_id"`
	QtyPerUnit  decimal.Decimal `json:"qty_per_unit"`
}

// BOMResponse salida de una lista de materiales.
type BOMResponse struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	Version   string            `json:"version"`
	Name      string            `json:"name,omitempty"`
	Lines     []BOMLineResponse `json:"lines"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// BOMListResponse lista de recetas.
type BOMListResponse struct {
	Items []BOMResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}
