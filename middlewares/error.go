package middlewares

import (
	"errors"

	"jofotara-backend/jofotara"
	"jofotara-backend/logger"
	"jofotara-backend/numbering"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
// Domain errors surface verbatim: they are written for the user.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Typed domain errors
	if status, ok := domainStatus(err); ok {
		return c.Status(status).JSON(fiber.Map{"message": err.Error()})
	}

	// 4) Unknown errors (500)
	log := logger.WithComponent("http")
	log.Error().Err(err).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}

// domainStatus maps the error taxonomy of the numbering and jofotara
// packages onto HTTP statuses.
func domainStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, numbering.ErrNumberLocked):
		return fiber.StatusLocked, true
	case errors.Is(err, numbering.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired, true
	case errors.Is(err, numbering.ErrReasonRequired):
		return fiber.StatusBadRequest, true
	case errors.Is(err, numbering.ErrInvalidNumber):
		return fiber.StatusBadRequest, true
	case errors.Is(err, numbering.ErrSeriesNotConfigured):
		return fiber.StatusConflict, true
	case errors.Is(err, jofotara.ErrAlreadySubmitted),
		errors.Is(err, jofotara.ErrOriginalNotSubmitted),
		errors.Is(err, jofotara.ErrSubmissionInFlight),
		errors.Is(err, jofotara.ErrInvoiceNotCorrected):
		return fiber.StatusConflict, true
	case errors.Is(err, jofotara.ErrEmptyLineItems),
		errors.Is(err, jofotara.ErrInvalidTaxCategory),
		errors.Is(err, jofotara.ErrMissingCreditReference):
		return fiber.StatusUnprocessableEntity, true
	}
	return 0, false
}
