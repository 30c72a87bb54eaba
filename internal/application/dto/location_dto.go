package dto

import "time"

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	Code          string `json:"code" validate:"required,min=1,max=50"`
	Name          string `json:"name" validate:"required,min=1,max=200"`
	Address       string `json:"address"`
	Sellable      bool   `json:"sellable"`
	Purchasable   bool   `json:"purchasable"`
	Manufacturing bool   `json:"manufacturing"`
}

// UpdateLocationRequest entrada para actualizar una ubicación.
type UpdateLocationRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address       *string `json:"address"`
	Sellable      *bool   `json:"sellable"`
	Purchasable   *bool   `json:"purchasable"`
	Manufacturing *bool   `json:"manufacturing"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Sellable      bool      `json:"sellable"`
	Purchasable   bool      `json:"purchasable"`
	Manufacturing bool      `json:"manufacturing"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LocationListResponse lista paginada de ubicaciones.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
