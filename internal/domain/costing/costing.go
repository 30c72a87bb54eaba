// Package costing implementa el costeo promedio ponderado por fila de stock.
// Son funciones puras: el procesador de movimientos decide cuándo aplicarlas
// dentro de la transacción.
package costing

import "github.com/shopspring/decimal"

// DefaultScale es la precisión por defecto en decimales de moneda (centavos).
const DefaultScale int32 = 2

// Round redondea un costo a scale decimales, mitad hacia arriba
// (los costos nunca son negativos).
func Round(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// NextAverageCost calcula el costo promedio de una fila tras una entrada.
//
// Reglas:
//   - incomingQty <= 0: el promedio no cambia, las salidas nunca mueven costo.
//   - onHand + incomingQty <= 0: el costeo se reinicia desde base cero y el
//     promedio pasa a ser el costo unitario de la entrada.
//   - resto: promedio ponderado clásico, redondeado a scale decimales.
func NextAverageCost(onHand, averageCost, incomingQty, incomingUnitCost decimal.Decimal, scale int32) decimal.Decimal {
	if incomingQty.LessThanOrEqual(decimal.Zero) {
		return averageCost
	}
	newOnHand := onHand.Add(incomingQty)
	if newOnHand.LessThanOrEqual(decimal.Zero) {
		return incomingUnitCost
	}
	total := onHand.Mul(averageCost).Add(incomingQty.Mul(incomingUnitCost))
	return Round(total.Div(newOnHand), scale)
}
