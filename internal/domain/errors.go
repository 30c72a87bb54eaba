package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los use cases los retornan (envueltos con %w cuando hay
// contexto adicional) y la capa HTTP los traduce a códigos de estado.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("el recurso ya existe")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidTransition      = errors.New("transición de estado inválida")
	ErrReferenceNotFound      = errors.New("referencia no encontrada")
	ErrLocationNotConfigured  = errors.New("ubicación no configurada para la operación")
	ErrConcurrentModification = errors.New("modificación concurrente, reintente la operación")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("operación no permitida para el rol")
	ErrEmailAlreadyExists     = errors.New("el email ya está registrado")
	ErrInvalidCredentials     = errors.New("credenciales inválidas")
)

// InsufficientStockError detalla un faltante de inventario: qué fila de stock,
// qué bucket, cuánto se pidió y cuánto había. errors.Is(err, ErrInsufficientStock)
// sigue funcionando vía Unwrap.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Ownership  string
	Bucket     string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s en %s (%s/%s): solicitado %s, disponible %s",
		e.ProductID, e.LocationID, e.Ownership, e.Bucket, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidTransitionError indica un cambio de estado no permitido sobre un documento
// (orden de ensamble, recepción). Confirmar dos veces una recepción cae aquí.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida de %s %s: %s -> %s", e.Entity, e.ID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ReferenceNotFoundError indica que una operación apunta a un maestro inexistente
// (producto, ubicación, BOM, orden).
type ReferenceNotFoundError struct {
	Kind string
	ID   string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s no existe", e.Kind, e.ID)
}

func (e *ReferenceNotFoundError) Unwrap() error { return ErrReferenceNotFound }

// ValidationError lleva el campo que falló la validación de entrada.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entrada inválida: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
