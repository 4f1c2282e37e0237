package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title     string         `gorm:"type:varchar(255)"`
	Messages  []Message      `gorm:"foreignKey:ConversationId"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Conversation) TableName() string {
	return "wb_conversation"
}

type Message struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role           string         `gorm:"type:varchar(16);not null"`
	Content        string         `gorm:"type:text"`
	Meta           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "wb_message"
}
