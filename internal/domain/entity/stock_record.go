package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnershipStatus distingue mercancía propia de mercancía en consignación.
type OwnershipStatus string

const (
	OwnershipOwned       OwnershipStatus = "OWNED"
	OwnershipConsignment OwnershipStatus = "CONSIGNMENT"
)

// Valid reporta si el valor es uno de los estados de propiedad conocidos.
func (o OwnershipStatus) Valid() bool {
	return o == OwnershipOwned || o == OwnershipConsignment
}

// Bucket es uno de los sub-saldos que componen OnHand.
type Bucket string

const (
	BucketSellable    Bucket = "SELLABLE"
	BucketNonSellable Bucket = "NON_SELLABLE"
	BucketReserved    Bucket = "RESERVED"
	BucketAllocated   Bucket = "ALLOCATED"
)

// Valid reporta si el valor es uno de los buckets conocidos.
func (b Bucket) Valid() bool {
	switch b {
	case BucketSellable, BucketNonSellable, BucketReserved, BucketAllocated:
		return true
	}
	return false
}

// StockKey identifica una fila de stock: (producto, ubicación, propiedad).
type StockKey struct {
	ProductID  string
	LocationID string
	Ownership  OwnershipStatus
}

// Less define el orden total estable con el que se bloquean varias filas
// en una misma transacción (traslados, liberación de órdenes de ensamble).
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.LocationID != o.LocationID {
		return k.LocationID < o.LocationID
	}
	return k.Ownership < o.Ownership
}

// StockRecord mantiene los saldos de un producto en una ubicación bajo una propiedad.
// Invariante: OnHand == Sellable + NonSellable + Reserved + Allocated.
type StockRecord struct {
	ProductID      string
	LocationID     string
	Ownership      OwnershipStatus
	OnHand         decimal.Decimal
	Sellable       decimal.Decimal
	NonSellable    decimal.Decimal
	Reserved       decimal.Decimal
	Allocated      decimal.Decimal
	AverageCost    decimal.Decimal // costo promedio ponderado, solo cambia con entradas
	LastCost       decimal.Decimal // costo unitario de la última entrada
	LastReceivedAt *time.Time
	LastSoldAt     *time.Time
	UpdatedAt      time.Time
}

// Key devuelve la identidad de la fila.
func (s *StockRecord) Key() StockKey {
	return StockKey{ProductID: s.ProductID, LocationID: s.LocationID, Ownership: s.Ownership}
}

// BucketQty devuelve el saldo del bucket indicado.
func (s *StockRecord) BucketQty(b Bucket) decimal.Decimal {
	switch b {
	case BucketSellable:
		return s.Sellable
	case BucketNonSellable:
		return s.NonSellable
	case BucketReserved:
		return s.Reserved
	case BucketAllocated:
		return s.Allocated
	}
	return decimal.Zero
}

// AddToBucket suma delta (con signo) al bucket indicado. No toca OnHand:
// el llamador decide si el ajuste es un movimiento (OnHand cambia con el
// mismo delta) o un traslado entre buckets (OnHand queda igual).
func (s *StockRecord) AddToBucket(b Bucket, delta decimal.Decimal) {
	switch b {
	case BucketSellable:
		s.Sellable = s.Sellable.Add(delta)
	case BucketNonSellable:
		s.NonSellable = s.NonSellable.Add(delta)
	case BucketReserved:
		s.Reserved = s.Reserved.Add(delta)
	case BucketAllocated:
		s.Allocated = s.Allocated.Add(delta)
	}
}

// Conserved verifica el invariante de conservación de buckets.
func (s *StockRecord) Conserved() bool {
	sum := s.Sellable.Add(s.NonSellable).Add(s.Reserved).Add(s.Allocated)
	return s.OnHand.Equal(sum)
}

// StockValue devuelve OnHand × AverageCost (valor contable de la fila).
func (s *StockRecord) StockValue() decimal.Decimal {
	return s.OnHand.Mul(s.AverageCost)
}
