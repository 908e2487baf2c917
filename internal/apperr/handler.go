package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler returns a fiber.ErrorHandler that renders every failure as {"error": msg}.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		msg := "internal server error"

		var appErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.Status()
			msg = appErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			msg = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
}
