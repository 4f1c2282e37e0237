package service

import (
	"context"
	"fmt"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/repository/specification"
	"well-bot-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationService interface {
	GetAll(ctx context.Context, userId string) ([]*dto.ConversationResponse, error)
	Create(ctx context.Context, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	Messages(ctx context.Context, conversationId uuid.UUID) ([]*dto.MessageResponse, error)
	AddMessage(ctx context.Context, conversationId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	Delete(ctx context.Context, conversationId uuid.UUID) error
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory) IConversationService {
	return &conversationService{uowFactory: uowFactory}
}

func toConversationResponse(c *entity.Conversation) *dto.ConversationResponse {
	res := &dto.ConversationResponse{
		Id:           c.Id,
		UserId:       c.UserId,
		Title:        c.Title,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.CreatedAt,
	}
	if res.Title == "" {
		res.Title = "Conversation " + c.CreatedAt.Format("2006-01-02")
	}
	if c.UpdatedAt != nil {
		res.UpdatedAt = *c.UpdatedAt
	}
	return res
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		Role:           m.Role,
		Content:        m.Content,
		Meta:           m.Meta,
		CreatedAt:      m.CreatedAt,
	}
}

func (s *conversationService) GetAll(ctx context.Context, userId string) ([]*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx, specification.ByUserID{UserID: UserUUID(userId)})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		res = append(res, toConversationResponse(c))
	}
	return res, nil
}

func (s *conversationService) Create(ctx context.Context, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    UserUUID(req.UserId),
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return toConversationResponse(conversation), nil
}

func (s *conversationService) Messages(ctx context.Context, conversationId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationID{ConversationID: conversationId})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, nil
}

func (s *conversationService) AddMessage(ctx context.Context, conversationId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}

	message := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           req.Role,
		Content:        req.Content,
		Meta:           req.Metadata,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return toMessageResponse(message), nil
}

func (s *conversationService) Delete(ctx context.Context, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return err
	}
	if conversation == nil {
		return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	return uow.ConversationRepository().Delete(ctx, conversationId)
}
