package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de referencia usuales en movimientos (RefType).
const (
	RefTypeGoodsReceipt  = "goods_receipt"
	RefTypeAssemblyOrder = "assembly_order"
	RefTypeTransfer      = "transfer"
	RefTypeSalesOrder    = "sales_order"
)

// MovementKind clasifica los movimientos de stock.
type MovementKind string

const (
	MovementReceipt         MovementKind = "RECEIPT"
	MovementSale            MovementKind = "SALE"
	MovementAdjustment      MovementKind = "ADJUSTMENT"
	MovementTransferOut     MovementKind = "TRANSFER_OUT"
	MovementTransferIn      MovementKind = "TRANSFER_IN"
	MovementDamage          MovementKind = "DAMAGE"
	MovementAssemblyConsume MovementKind = "ASSEMBLY_CONSUME"
	MovementAssemblyProduce MovementKind = "ASSEMBLY_PRODUCE"
	MovementSalesReturn     MovementKind = "SALES_RETURN"
	MovementPurchaseReturn  MovementKind = "PURCHASE_RETURN"
)

// Valid reporta si el tipo es uno de los movimientos conocidos.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementReceipt, MovementSale, MovementAdjustment, MovementTransferOut,
		MovementTransferIn, MovementDamage, MovementAssemblyConsume,
		MovementAssemblyProduce, MovementSalesReturn, MovementPurchaseReturn:
		return true
	}
	return false
}

// Direction devuelve +1 para entradas, -1 para salidas y 0 para ADJUSTMENT
// (que admite ambos signos). La cantidad del movimiento debe llevar el signo
// que la dirección indica.
func (k MovementKind) Direction() int {
	switch k {
	case MovementReceipt, MovementTransferIn, MovementAssemblyProduce, MovementSalesReturn:
		return 1
	case MovementSale, MovementTransferOut, MovementDamage, MovementAssemblyConsume, MovementPurchaseReturn:
		return -1
	}
	return 0
}

// DefaultBucket es el bucket que el movimiento afecta cuando el llamador no
// indica otro. El consumo de ensamble siempre sale de ALLOCATED.
func (k MovementKind) DefaultBucket() Bucket {
	if k == MovementAssemblyConsume {
		return BucketAllocated
	}
	return BucketSellable
}

// Movement es una entrada del libro mayor de stock: inmutable una vez escrita,
// nunca se actualiza ni se borra. Quantity lleva signo (positivo entrada,
// negativo salida) y siempre se registra junto con la actualización de la
// fila de stock en la misma transacción.
type Movement struct {
	ID         string
	ProductID  string
	LocationID string
	Ownership  OwnershipStatus
	Kind       MovementKind
	Bucket     Bucket          // bucket afectado por Quantity
	Quantity   decimal.Decimal // con signo
	UnitCost   decimal.Decimal // entradas: costo recibido; salidas: promedio vigente
	TotalCost  decimal.Decimal // Quantity × UnitCost, con signo
	RefType    string          // goods_receipt, assembly_order, transfer, ...
	RefID      string
	Note       string
	OccurredAt time.Time
	CreatedAt  time.Time
	CreatedBy  string
}
