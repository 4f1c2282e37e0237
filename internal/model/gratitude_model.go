package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GratitudeItem struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Text      string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (GratitudeItem) TableName() string {
	return "wb_gratitude_item"
}
