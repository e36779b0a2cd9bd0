package utils

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
)

// FieldError carries field-level validation detail in error envelopes.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Envelope is the uniform response shape produced by every handler.
type Envelope struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
	Data      interface{}  `json:"data,omitempty"`
	Meta      *Pagination  `json:"meta,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}

func envelope(success bool, message string) Envelope {
	return Envelope{
		Success:   success,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Success writes a success envelope with an optional data payload.
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	env := envelope(true, message)
	env.Data = data
	return c.Status(status).JSON(env)
}

// SuccessList writes a success envelope carrying a paginated result set.
func SuccessList(c *fiber.Ctx, message string, data interface{}, meta *Pagination) error {
	env := envelope(true, message)
	env.Data = data
	env.Meta = meta
	return c.Status(fiber.StatusOK).JSON(env)
}

// Error writes an error envelope. Statuses of 500 and above are reported to
// Sentry before the response is written.
func Error(c *fiber.Ctx, status int, message string) error {
	if status >= fiber.StatusInternalServerError {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("path", c.Path())
			scope.SetTag("method", c.Method())
			sentry.CaptureMessage(message)
		})
	}
	return c.Status(status).JSON(envelope(false, message))
}

// ErrorHandler converts any error escaping a handler into the standard
// envelope. Unknown errors are treated as upstream failures and reported.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Erreur interne du serveur"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	} else {
		sentry.CaptureException(err)
	}

	return Error(c, status, message)
}

// ValidationFailed writes a 400 envelope carrying field-level errors.
func ValidationFailed(c *fiber.Ctx, errs []FieldError) error {
	env := envelope(false, "Données invalides")
	env.Errors = errs
	return c.Status(fiber.StatusBadRequest).JSON(env)
}
