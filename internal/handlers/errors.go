package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-reviewer/internal/repositories"
	"alfredoptarigan/career-reviewer/internal/services"
)

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrStudentNotFound),
		errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrReviewInProgress),
		errors.Is(err, services.ErrAlreadyReviewed):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrPayloadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrUnreadableDocument),
		errors.Is(err, services.ErrInvalidKind):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrTimeout),
		errors.Is(err, services.ErrTransport),
		errors.Is(err, services.ErrMalformedResponse),
		errors.Is(err, services.ErrSchemaViolation):
		return fiber.StatusBadGateway
	case errors.Is(err, services.ErrQueueFull),
		errors.Is(err, services.ErrDispatcherStopped):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
