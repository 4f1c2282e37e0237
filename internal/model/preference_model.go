package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserPreference struct {
	UserId    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Religion  string         `gorm:"type:varchar(64)"`
	Language  string         `gorm:"type:varchar(16);default:'en'"`
	Extra     datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (UserPreference) TableName() string {
	return "wb_preferences"
}
