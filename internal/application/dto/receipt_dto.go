package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoodsReceiptLineRequest línea de recepción: producto, cantidad y costo unitario.
type GoodsReceiptLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateGoodsReceiptRequest body para crear una recepción en borrador.
type CreateGoodsReceiptRequest struct {
	Number     string                    `json:"number,omitempty"`
	LocationID string                    `json:"location_id,omitempty"`
	SupplierID string                    `json:"supplier_id,omitempty"`
	RefType    string                    `json:"ref_type,omitempty"`
	RefID      string                    `json:"ref_id,omitempty"`
	Note       string                    `json:"note,omitempty"`
	Lines      []GoodsReceiptLineRequest `json:"lines,omitempty"`
}

// UpdateGoodsReceiptRequest body para editar una recepción en borrador.
// Lines presente reemplaza todas las líneas.
type UpdateGoodsReceiptRequest struct {
	LocationID *string                   `json:"location_id,omitempty"`
	SupplierID *string                   `json:"supplier_id,omitempty"`
	RefType    *string                   `json:"ref_type,omitempty"`
	RefID      *string                   `json:"ref_id,omitempty"`
	Note       *string                   `json:"note,omitempty"`
	Lines      []GoodsReceiptLineRequest `json:"lines,omitempty"`
}

// GoodsReceiptLineResponse línea de recepción en salida.
type GoodsReceiptLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// GoodsReceiptResponse salida de una recepción de mercancía.
type GoodsReceiptResponse struct {
	ID         string                     `json:"id"`
	Number     string                     `json:"number"`
	LocationID string                     `json:"location_id,omitempty"`
	SupplierID string                     `json:"supplier_id,omitempty"`
	RefType    string                     `json:"ref_type,omitempty"`
	RefID      string                     `json:"ref_id,omitempty"`
	Status     string                     `json:"status"`
	Note       string                     `json:"note,omitempty"`
	Lines      []GoodsReceiptLineResponse `json:"lines"`
	ReceivedBy string                     `json:"received_by,omitempty"`
	ReceivedAt *time.Time                 `json:"received_at,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// GoodsReceiptListResponse lista paginada de recepciones.
type GoodsReceiptListResponse struct {
	Items []GoodsReceiptResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
