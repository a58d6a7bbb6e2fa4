package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"jobdash/internal/applog"
	"jobdash/internal/export"
	"jobdash/internal/http/middleware"
	"jobdash/internal/openfda"
	"jobdash/internal/service"
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

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps sentinel errors to responses. Order matters only where
// errors wrap each other.
var serviceErrors = []errorMapping{
	{service.ErrInvalidID, fiber.StatusBadRequest, "INVALID_ID", "invalid id"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "application not found"},
	{service.ErrResumeNotFound, fiber.StatusNotFound, "NOT_FOUND", "no resume stored for this application"},
	{service.ErrInvalidResumeType, fiber.StatusBadRequest, "INVALID_RESUME_TYPE", "resume must be a .pdf, .doc or .docx file"},
	{service.ErrExtractionFailed, fiber.StatusBadGateway, "EXTRACTION_FAILED", "entity extraction failed, nothing was saved"},
	{service.ErrDrugRequired, fiber.StatusBadRequest, "DRUG_REQUIRED", "drug is required"},
	{openfda.ErrInvalidLimit, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 1000"},
	{export.ErrUnsupportedFormat, fiber.StatusBadRequest, "UNSUPPORTED_FORMAT", "format must be csv, json or xlsx"},
	{service.ErrArchiveUnavailable, fiber.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "export archiving is not configured"},
	{openfda.ErrNetwork, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", service.WarnNetwork},
	{openfda.ErrFormat, fiber.StatusBadGateway, "UPSTREAM_BAD_RESPONSE", service.WarnFormat},
}

// writeServiceError translates a service error. Unknown errors are logged and
// reported as INTERNAL_ERROR.
func writeServiceError(c *fiber.Ctx, loc *time.Location, err error) error {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			return writeError(c, m.status, m.code, m.message)
		}
	}
	applog.Log(loc, map[string]any{
		"component":     "http",
		"event":         "request_failed",
		"status":        "error",
		"request_id":    middleware.GetRequestID(c),
		"path":          c.Path(),
		"error_message": err.Error(),
	})
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
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
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
