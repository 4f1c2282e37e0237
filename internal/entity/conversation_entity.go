package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Conversation struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	Meta           map[string]interface{}
	CreatedAt      time.Time
}
