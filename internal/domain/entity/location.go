package entity

import "time"

// Location representa una bodega, tienda o planta donde se almacena inventario.
// Los flags dicen qué operaciones acepta la ubicación: despachar ventas,
// recibir compras o ejecutar órdenes de ensamble.
type Location struct {
	ID            string
	Code          string // código corto único (BOD-01, TDA-CENTRO)
	Name          string
	Address       string
	Sellable      bool
	Purchasable   bool
	Manufacturing bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
