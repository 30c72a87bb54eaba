package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyMovementRequest body para POST /api/stock/movements.
// Quantity lleva el signo de la dirección del tipo; UnitCost es obligatorio
// en entradas. Bucket vacío usa el bucket por defecto del tipo.
type ApplyMovementRequest struct {
	ProductID  string           `json:"product_id" validate:"required"`
	LocationID string           `json:"location_id" validate:"required"`
	Ownership  string           `json:"ownership,omitempty"`
	Kind       string           `json:"kind" validate:"required"`
	Bucket     string           `json:"bucket,omitempty"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	RefType    string           `json:"ref_type,omitempty"`
	RefID      string           `json:"ref_id,omitempty"`
	Note       string           `json:"note,omitempty"`
}

// ReserveRequest body para POST /api/stock/reservations y su liberación.
type ReserveRequest struct {
	ProductID  string          `json:"product_id" validate:"required"`
	LocationID string          `json:"location_id" validate:"required"`
	Ownership  string          `json:"ownership,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// TransferRequest body para POST /api/stock/transfers.
type TransferRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	FromLocationID string          `json:"from_location_id" validate:"required"`
	ToLocationID   string          `json:"to_location_id" validate:"required"`
	Ownership      string          `json:"ownership,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Note           string          `json:"note,omitempty"`
}

// StockRecordResponse salida de una fila de stock con sus buckets.
type StockRecordResponse struct {
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	Ownership      string          `json:"ownership"`
	OnHand         decimal.Decimal `json:"on_hand"`
	Sellable       decimal.Decimal `json:"sellable"`
	NonSellable    decimal.Decimal `json:"non_sellable"`
	Reserved       decimal.Decimal `json:"reserved"`
	Allocated      decimal.Decimal `json:"allocated"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	LastCost       decimal.Decimal `json:"last_cost"`
	StockValue     decimal.Decimal `json:"stock_value"`
	LastReceivedAt *time.Time      `json:"last_received_at,omitempty"`
	LastSoldAt     *time.Time      `json:"last_sold_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StockRecordListResponse lista de filas de stock.
type StockRecordListResponse struct {
	Items []StockRecordResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// MovementResponse salida de un asiento del libro de movimientos.
type MovementResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Ownership  string          `json:"ownership"`
	Kind       string          `json:"kind"`
	Bucket     string          `json:"bucket"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	RefType    string          `json:"ref_type,omitempty"`
	RefID      string          `json:"ref_id,omitempty"`
	Note       string          `json:"note,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ApplyMovementResponse salida de aplicar un movimiento: el asiento y la fila resultante.
type ApplyMovementResponse struct {
	Movement MovementResponse    `json:"movement"`
	Record   StockRecordResponse `json:"record"`
}

// TransferResponse salida de un traslado entre ubicaciones.
type TransferResponse struct {
	TransferID string                `json:"transfer_id"`
	Out        ApplyMovementResponse `json:"out"`
	In         ApplyMovementResponse `json:"in"`
}
