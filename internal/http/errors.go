package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps handler errors to the JSON error envelope. Anything
// that is not a *fiber.Error degrades to a generic 500 so internals
// never leak to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"message": message})
}
