package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	UserId string `json:"user_id" validate:"required"`
	Title  string `json:"title" validate:"max=255"`
}

type ConversationResponse struct {
	Id           uuid.UUID `json:"id"`
	UserId       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Id             uuid.UUID              `json:"id"`
	ConversationId uuid.UUID              `json:"conversation_id"`
	Role           string                 `json:"role"`
	Content        string                 `json:"content"`
	Meta           map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

type SendMessageRequest struct {
	Role     string                 `json:"role" validate:"required,oneof=user assistant"`
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}
