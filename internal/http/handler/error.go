package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"resourcehub/internal/http/middleware"
	"resourcehub/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response. message must be safe
// to show to clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "unauthorized")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "route not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			// Body limit is enforced by the server before the upload handler runs.
			return writeError(c, fiber.StatusBadRequest, "PAYLOAD_TOO_LARGE", service.ErrPayloadTooLarge.Error())
		default:
			log.Error("unhandled error",
				zap.String("request_id", middleware.RequestIDFromCtx(c)),
				zap.Error(err),
			)
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// serviceError maps a resource service error onto the response taxonomy.
func serviceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var (
		ie *service.DataIntegrityError
		se *service.StorageError
	)
	switch {
	case errors.Is(err, service.ErrMissingPayload):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrPayloadTooLarge):
		return writeError(c, fiber.StatusBadRequest, "PAYLOAD_TOO_LARGE", err.Error())
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.As(err, &ie):
		switch ie.Kind {
		case service.DataMissing:
			return writeError(c, fiber.StatusInternalServerError, "DATA_MISSING", "resource data is missing")
		case service.InvalidFormat:
			return writeError(c, fiber.StatusInternalServerError, "INVALID_FORMAT", "invalid resource data format")
		default:
			return writeError(c, fiber.StatusInternalServerError, "DECODE_FAILURE", "failed to decode file data")
		}
	case errors.As(err, &se):
		log.Error("storage failure",
			zap.String("request_id", middleware.RequestIDFromCtx(c)),
			zap.String("op", se.Op),
			zap.String("key", se.Key),
			zap.Error(se.Err),
		)
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "storage unavailable")
	default:
		log.Error("request failed",
			zap.String("request_id", middleware.RequestIDFromCtx(c)),
			zap.Error(err),
		)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
