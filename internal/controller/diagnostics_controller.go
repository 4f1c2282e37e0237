package controller

import (
	"well-bot-be/internal/dto"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/pkg/serverutils"
	"well-bot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LogReader reads back the structured application log
type LogReader interface {
	GetLogs(q logger.LogQuery) ([]logger.LogEntry, error)
	GetLogById(id string) (*logger.LogEntry, error)
}

type IDiagnosticsController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Logs(ctx *fiber.Ctx) error
	LogDetail(ctx *fiber.Ctx) error
	Activity(ctx *fiber.Ctx) error
}

type diagnosticsController struct {
	logs     LogReader
	activity service.IActivityService
}

func NewDiagnosticsController(logs LogReader, activity service.IActivityService) IDiagnosticsController {
	return &diagnosticsController{logs: logs, activity: activity}
}

func (c *diagnosticsController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/diagnostics")
	h.Use(auth)
	h.Get("/logs", c.Logs)
	h.Get("/logs/:id", c.LogDetail)
	h.Get("/activity/:user_id", c.Activity)
}

func toLogResponse(e logger.LogEntry) dto.LogListResponse {
	return dto.LogListResponse{
		Id:        e.Id,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		Timestamp: e.Timestamp,
		Details:   e.Details,
	}
}

func (c *diagnosticsController) Logs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	entries, err := c.logs.GetLogs(logger.LogQuery{
		Level:   ctx.Query("level"),
		Module:  ctx.Query("module"),
		TraceId: ctx.Query("trace_id"),
		Limit:   limit,
		Offset:  ctx.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}

	res := make([]dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toLogResponse(e))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}

func (c *diagnosticsController) LogDetail(ctx *fiber.Ctx) error {
	entry, err := c.logs.GetLogById(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Log not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get log", toLogResponse(*entry)))
}

func (c *diagnosticsController) Activity(ctx *fiber.Ctx) error {
	res, err := c.activity.Recent(ctx.UserContext(), service.UserUUID(ctx.Params("user_id")), ctx.Query("type"), ctx.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get activity", res))
}
