// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pdiddy/paper-explainer/internal/server/middleware"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// errorPayload is the JSON error body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind types.ErrorKind) int {
	switch kind {
	case types.InvalidInput, types.MissingInput, types.FileNotFound:
		return fiber.StatusBadRequest
	case types.ConversionFailure:
		return fiber.StatusUnprocessableEntity
	case types.DownloadFailure, types.UploadFailure, types.GenerationFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// codeFor turns a kind into the upper-case code used in error bodies.
func codeFor(kind types.ErrorKind) string {
	if kind == "" {
		return "INTERNAL_ERROR"
	}
	return strings.ToUpper(string(kind))
}

// ErrorHandler standardizes errors that escape handlers.
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
			return writeError(c, status, "TOO_LARGE", "upload exceeds the size limit")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
