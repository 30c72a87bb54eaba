package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo.
// DefaultCost siembra el costo promedio de una fila de stock recién creada;
// el promedio vivo se mantiene por fila en StockRecord y solo lo mueven las entradas.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta de referencia
	DefaultCost decimal.Decimal
	UnitMeasure string
	BOMID       string // vacío si el producto no es fabricado
	Attributes  json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
