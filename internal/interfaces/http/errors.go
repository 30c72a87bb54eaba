package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/domain"
)

// domainError traduce un error del dominio a su respuesta HTTP. Los handlers
// lo usan como salida única tras llamar al caso de uso; los errores tipados
// (stock insuficiente, transición inválida) ya traen el detalle en el mensaje.
func domainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return respond(c, fiber.StatusBadRequest, "VALIDATION", err)
	case errors.Is(err, domain.ErrLocationNotConfigured):
		return respond(c, fiber.StatusBadRequest, "LOCATION_NOT_CONFIGURED", err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return respond(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err)
	case errors.Is(err, domain.ErrUnauthorized):
		return respond(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err)
	case errors.Is(err, domain.ErrForbidden):
		return respond(c, fiber.StatusForbidden, "FORBIDDEN", err)
	case errors.Is(err, domain.ErrNotFound):
		return respond(c, fiber.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, domain.ErrReferenceNotFound):
		return respond(c, fiber.StatusNotFound, "REFERENCE_NOT_FOUND", err)
	case errors.Is(err, domain.ErrDuplicate):
		return respond(c, fiber.StatusConflict, "DUPLICATE", err)
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return respond(c, fiber.StatusConflict, "EMAIL_EXISTS", err)
	case errors.Is(err, domain.ErrInsufficientStock):
		return respond(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return respond(c, fiber.StatusConflict, "INVALID_TRANSITION", err)
	case errors.Is(err, domain.ErrConcurrentModification):
		return respond(c, fiber.StatusConflict, "CONCURRENT_MODIFICATION", err)
	default:
		return respond(c, fiber.StatusInternalServerError, "INTERNAL", err)
	}
}

func respond(c *fiber.Ctx, status int, code string, err error) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// badRequest respuesta 400 con código y mensaje fijos, para errores de parseo
// previos al caso de uso.
func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}
