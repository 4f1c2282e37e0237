package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TodoItem struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:varchar(255);not null"`
	Status      string         `gorm:"type:varchar(16);not null;default:'open';index"`
	CompletedAt *time.Time     `gorm:"type:timestamptz"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (TodoItem) TableName() string {
	return "wb_todo_item"
}
