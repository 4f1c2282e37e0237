package mapper

import (
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/model"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:           c.Id,
		UserId:       c.UserId,
		Title:        c.Title,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}
	return &model.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		Meta:           fromJSON(msg.Meta),
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		Meta:           toJSON(msg.Meta),
		CreatedAt:      msg.CreatedAt,
	}
}
