package controller

import (
	"context"
	"strconv"
	"time"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/pkg/serverutils"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/turn"

	"github.com/gofiber/fiber/v2"
)

// ToolRunner invokes one tool with the session guarantees of a turn
type ToolRunner interface {
	RunTool(ctx context.Context, env card.Envelope, entry turn.Entry) card.Card
}

type IToolController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Invoke(ctx *fiber.Ctx) error
}

type toolController struct {
	runner  ToolRunner
	toolbox turn.Toolbox
	logger  logger.ILogger
}

func NewToolController(runner ToolRunner, toolbox turn.Toolbox, log logger.ILogger) IToolController {
	return &toolController{runner: runner, toolbox: toolbox, logger: log}
}

func (c *toolController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/tools")
	h.Use(timing)
	h.Get("", c.List)
	h.Post("/:tool", auth, c.Invoke)
}

// timing reports handler latency in X-Response-Time
func timing(ctx *fiber.Ctx) error {
	start := time.Now()
	err := ctx.Next()
	ctx.Set("X-Response-Time", strconv.FormatInt(time.Since(start).Milliseconds(), 10)+"ms")
	return err
}

func (c *toolController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list tools", c.toolbox.Names()))
}

func (c *toolController) Invoke(ctx *fiber.Ctx) error {
	name := ctx.Params("tool")
	entry, ok := c.toolbox[name]
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(
			card.Fail(name, "Unknown Tool", "No tool named '"+name+"' is available.", card.CodeUnknownTool))
	}

	var env card.Envelope
	if err := ctx.BodyParser(&env); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			card.Fail(name, "Validation Error", "Invalid request format", card.CodeValidation))
	}
	if err := env.Validate(); err != nil {
		c.logger.Warn("ToolController", "Envelope validation failed", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusBadRequest).JSON(card.FromError(name, err))
	}
	if uid, ok := ctx.Locals(serverutils.LocalUserID).(string); ok && uid != "" && uid != env.UserId {
		return ctx.Status(fiber.StatusForbidden).JSON(
			card.Fail(name, "Unauthorized", "Token does not match user_id", card.CodeUnauthorized))
	}
	if env.Args == nil {
		env.Args = map[string]interface{}{}
	}

	return ctx.JSON(c.runner.RunTool(ctx.UserContext(), env, entry))
}
