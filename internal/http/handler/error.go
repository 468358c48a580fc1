package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"idrepo/internal/apperror"
	"idrepo/internal/http/middleware"
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

// writeAppError maps a taxonomy-tagged error onto an HTTP response. Domain
// failures surface their stable code and message; infrastructure failures are
// reported as opaque 500s, the cause stays in the logs.
func writeAppError(c *fiber.Ctx, err error) error {
	var e *apperror.Error
	if !errors.As(err, &e) {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}

	switch e.Kind {
	case apperror.KindInvalidInput:
		return writeError(c, fiber.StatusBadRequest, e.Code, e.Message)
	case apperror.KindNotFound:
		return writeError(c, fiber.StatusNotFound, e.Code, e.Message)
	case apperror.KindDuplicateRecord, apperror.KindInvalidState:
		return writeError(c, fiber.StatusConflict, e.Code, e.Message)
	default:
		// StorageAccess, DatabaseAccess, ShardResolution
		return writeError(c, fiber.StatusInternalServerError, e.Code, "internal server error")
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
