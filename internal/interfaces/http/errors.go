package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
)

// errorBody respuesta de error con el paso del pipeline que falló, si aplica.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
	Field   string `json:"field,omitempty"`
	Step    string `json:"step,omitempty"`
}

// writeError traduce un error de dominio o de pipeline a status HTTP y cuerpo JSON.
// Los errores de guarda y validación van antes que los de colaboradores: nunca se reintentan.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var (
		guard   *domain.GuardViolation
		invalid *domain.ValidationError
		timeout *domain.ConsistencyTimeout
		step    *domain.StepError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.As(err, &guard):
		return c.Status(fiber.StatusConflict).JSON(errorBody{Code: "GUARD_VIOLATION", Message: guard.Message, Rule: guard.Rule})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Code: "VALIDATION", Message: invalid.Message, Field: invalid.Field})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.As(err, &timeout):
		log.Error().Err(err).Str("invoice_id", timeout.InvoiceID).Str("sale_id", timeout.SaleID).Msg("cuenta por cobrar no materializada")
		return c.Status(fiber.StatusGatewayTimeout).JSON(errorBody{Code: "CONSISTENCY_TIMEOUT", Message: err.Error(), Step: timeout.Step})
	case errors.As(err, &step):
		log.Error().Err(step.Err).Str("step", step.Step).Msg("falla de colaborador")
		return c.Status(fiber.StatusBadGateway).JSON(errorBody{Code: "DEPENDENCY_FAILURE", Message: "no se pudo completar la operación", Step: step.Step})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
