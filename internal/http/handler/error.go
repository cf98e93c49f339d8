package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"blobapi/internal/expiry"
	"blobapi/internal/http/middleware"
	"blobapi/internal/service"
	"blobapi/internal/storage"
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

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_KEY", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps known service/storage/expiry errors to HTTP
// responses. Classification failures from the expiry core are client
// errors: the caller supplied a value no magnitude bucket accepts.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "object not found")
	case errors.Is(err, service.ErrKeyRequired):
		return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "key is required")
	case errors.Is(err, service.ErrInvalidKey):
		return writeError(c, fiber.StatusBadRequest, "INVALID_KEY", "invalid key")
	case errors.Is(err, expiry.ErrInvalidExpiration):
		return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRES", "unclassifiable expiration value")
	case errors.Is(err, service.ErrExpiryTooLong):
		return writeError(c, fiber.StatusBadRequest, "EXPIRY_TOO_LONG", "expiration exceeds the signing maximum")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
