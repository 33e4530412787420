package handlers

import (
	"errors"

	"catalog/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindAlreadyExists:
		return fiber.StatusConflict
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the fiber.Config.ErrorHandler for the whole app. Every handler
// returns its error and this is the only place that turns it into a response.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			status := StatusFor(appErr.Kind)
			body := fiber.Map{"message": appErr.Message}

			switch appErr.Kind {
			case apperror.KindValidation:
				if len(appErr.Fields) > 0 {
					body["errors"] = appErr.Fields
				}
			case apperror.KindUnexpected:
				body["message"] = "An unexpected error occurred: " + appErr.Error()
			}

			logError(log, c, status, err, zap.Stringer("kind", appErr.Kind))
			return c.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			logError(log, c, fiberErr.Code, err)
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		logError(log, c, fiber.StatusInternalServerError, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "An unexpected error occurred: " + err.Error(),
		})
	}
}

func logError(log *zap.Logger, c *fiber.Ctx, status int, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.Int("status", status),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Any("request_id", c.Locals("requestid")),
		zap.Error(err),
	}, extra...)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Debug("request rejected", fields...)
}
