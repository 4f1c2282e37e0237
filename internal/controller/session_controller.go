package controller

import (
	"well-bot-be/internal/dto"
	"well-bot-be/internal/pkg/serverutils"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/turn"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	State(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
}

type sessionController struct {
	registry *turn.Registry
	runner   ToolRunner
	toolbox  turn.Toolbox
}

func NewSessionController(registry *turn.Registry, runner ToolRunner, toolbox turn.Toolbox) ISessionController {
	return &sessionController{registry: registry, runner: runner, toolbox: toolbox}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/sessions")
	h.Use(auth)
	h.Get("/:id", c.State)
	h.Post("/:id/end", c.End)
}

func (c *sessionController) State(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	rec, ok := c.registry.Lookup(id)
	if !ok {
		return ctx.JSON(serverutils.SuccessResponse("Session is idle", dto.SessionStateResponse{
			SessionId: id,
			State:     string(session.StateIdle),
		}))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session state", dto.SessionStateResponse{
		SessionId:    id,
		State:        string(rec.Machine.State()),
		Suspended:    rec.Machine.Suspended(),
		LastActivity: rec.Machine.LastActivity(),
	}))
}

// End closes the session through the session.end tool so the end card and the
// session effect match a spoken "goodbye"
func (c *sessionController) End(ctx *fiber.Ctx) error {
	var req dto.EndSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request format")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID, _ := ctx.Locals(serverutils.LocalUserID).(string)
	if userID == "" {
		userID = ctx.Query("user_id", "anonymous")
	}
	args := map[string]interface{}{}
	if req.Reason != "" {
		args["reason"] = req.Reason
	}
	env := card.NewEnvelope(traceID(ctx), userID, "", ctx.Params("id"), args)

	return ctx.JSON(c.runner.RunTool(ctx.UserContext(), env, c.toolbox[session.ToolEnd]))
}
