package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una recepción de mercancía.
type GoodsReceiptStatus string

const (
	ReceiptDraft     GoodsReceiptStatus = "DRAFT"
	ReceiptConfirmed GoodsReceiptStatus = "CONFIRMED"
)

// GoodsReceipt documenta una llegada de mercancía. Mientras está en DRAFT las
// líneas se pueden editar; al confirmar se genera un movimiento RECEIPT por
// línea y el documento queda inmutable.
type GoodsReceipt struct {
	ID         string
	Number     string
	LocationID string
	SupplierID string // vacío si no aplica cuenta por pagar
	RefType    string // purchase_order, sales_return, ...
	RefID      string
	Status     GoodsReceiptStatus
	Note       string
	Lines      []GoodsReceiptLine
	ReceivedBy string
	ReceivedAt *time.Time
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GoodsReceiptLine es una línea de recepción: producto, cantidad y costo unitario.
type GoodsReceiptLine struct {
	ID        string
	ReceiptID string
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}
