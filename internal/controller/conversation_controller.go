package controller

import (
	"well-bot-be/internal/dto"
	"well-bot-be/internal/pkg/serverutils"
	"well-bot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type conversationController struct {
	service service.IConversationService
}

func NewConversationController(service service.IConversationService) IConversationController {
	return &conversationController{service: service}
}

func (c *conversationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/conversations")
	h.Use(auth)
	h.Get("/:user_id", c.GetAll)
	h.Post("", c.Create)
	h.Get("/:id/messages", c.Messages)
	h.Post("/:id/messages", c.AddMessage)
	h.Delete("/:id", c.Delete)
}

func conversationID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}
	return id, nil
}

func (c *conversationController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAll(ctx.UserContext(), ctx.Params("user_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all conversations", res))
}

func (c *conversationController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request format")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *conversationController) Messages(ctx *fiber.Ctx) error {
	id, err := conversationID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.Messages(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *conversationController) AddMessage(ctx *fiber.Ctx) error {
	id, err := conversationID(ctx)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request format")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddMessage(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create message", res))
}

func (c *conversationController) Delete(ctx *fiber.Ctx) error {
	id, err := conversationID(ctx)
	if err != nil {
		return err
	}
	if err := c.service.Delete(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}
