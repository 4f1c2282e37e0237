package controller

import (
	"context"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/pkg/serverutils"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/turn"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TurnHandler runs one utterance through the turn pipeline
type TurnHandler interface {
	Handle(ctx context.Context, req turn.Request) card.Card
}

type ITurnController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	ChatTurn(ctx *fiber.Ctx) error
}

type turnController struct {
	turns TurnHandler
}

func NewTurnController(turns TurnHandler) ITurnController {
	return &turnController{turns: turns}
}

func (c *turnController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/llm")
	h.Post("/chat/turn", auth, c.ChatTurn)
}

// traceID prefers the client's X-Trace-Id header
func traceID(ctx *fiber.Ctx) string {
	if id := ctx.Get("X-Trace-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

func (c *turnController) ChatTurn(ctx *fiber.Ctx) error {
	var req dto.ChatTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			card.Fail(turn.ToolTurn, "Validation Error", "Invalid request format", card.CodeValidation))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		_, message := serverutils.StatusOf(err)
		return ctx.Status(fiber.StatusBadRequest).JSON(
			card.Fail(turn.ToolTurn, "Validation Error", message, card.CodeValidation))
	}
	if uid, ok := ctx.Locals(serverutils.LocalUserID).(string); ok && uid != "" && uid != req.UserId {
		return ctx.Status(fiber.StatusForbidden).JSON(
			card.Fail(turn.ToolTurn, "Unauthorized", "Token does not match user_id", card.CodeUnauthorized))
	}

	res := c.turns.Handle(ctx.UserContext(), turn.Request{
		Envelope: req.Envelope(traceID(ctx)),
		Text:     req.Text,
		Language: req.Language,
	})
	return ctx.JSON(res)
}
