package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cloudsync/internal/http/middleware"
	"cloudsync/internal/service"
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
// to show clients; provider and driver text never reaches it.
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
	kind    error
	status  int
	code    string
	message string
}

// Order matters: the first matching kind wins.
var errorMappings = []errorMapping{
	{service.ErrValidation, fiber.StatusBadRequest, "VALIDATION_ERROR", ""},
	{service.ErrTooLarge, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload limit"},
	{service.ErrAlreadyExists, fiber.StatusConflict, "ALREADY_EXISTS", "email already registered"},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"},
	{service.ErrAccountDisabled, fiber.StatusForbidden, "ACCOUNT_DISABLED", "account is disabled"},
	{service.ErrNotFoundOrForbidden, fiber.StatusNotFound, "NOT_FOUND", "file not found or access denied"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "resource not found"},
	{service.ErrInvalidShareLink, fiber.StatusNotFound, "INVALID_SHARE_LINK", "share link is invalid"},
	{service.ErrShareLinkExpired, fiber.StatusGone, "SHARE_LINK_EXPIRED", "share link has expired"},
	{service.ErrStorageWriteFailed, fiber.StatusBadGateway, "STORAGE_ERROR", "failed to store file"},
	{service.ErrStorageDeleteFailed, fiber.StatusBadGateway, "STORAGE_ERROR", "failed to delete file from storage"},
	{service.ErrStorageReadFailed, fiber.StatusBadGateway, "STORAGE_ERROR", "failed to generate download url"},
}

// respondError maps a service error to its HTTP status and stable code.
// Unknown errors are logged and reported as INTERNAL_ERROR.
func respondError(c *fiber.Ctx, err error) error {
	var ue *service.UnauthorizedError
	if errors.As(err, &ue) {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", ue.Reason)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			msg := m.message
			if msg == "" {
				msg = validationMessage(err)
			}
			return writeError(c, m.status, m.code, msg)
		}
	}

	slog.ErrorContext(c.UserContext(), "request_failed",
		"request_id", middleware.GetRequestID(c),
		"path", c.Path(),
		"error_message", err.Error(),
	)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// validationMessage strips the kind prefix from "validation failed: detail".
// Validation details are written by the service for clients.
func validationMessage(err error) string {
	if _, detail, ok := strings.Cut(err.Error(), service.ErrValidation.Error()+": "); ok {
		return detail
	}
	return "invalid request"
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return respondError(c, err)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fe.Code, "FILE_TOO_LARGE", "request body exceeds the upload limit")
		default:
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
	}
}
