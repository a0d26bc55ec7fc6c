package handlers

import (
	"errors"

	"ferreteria/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP statuses.
func writeError(c *fiber.Ctx, message string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrNotReady):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Catalog is not loaded yet, refresh and try again",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrRemoteUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
	zap.L().Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
