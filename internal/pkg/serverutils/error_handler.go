package serverutils

import (
	"errors"

	"well-bot-be/pkg/card"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by later handlers as ErrorResponse
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusOf(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusOf maps an error to an HTTP status and a client-safe message
func StatusOf(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var ce *card.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case card.KindValidation:
			return fiber.StatusBadRequest, ce.Message
		case card.KindStateConflict:
			return fiber.StatusConflict, ce.Message
		}
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
