package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActivityEvent struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type      string         `gorm:"type:varchar(64);not null;index"`
	RefId     *uuid.UUID     `gorm:"type:uuid"`
	Action    string         `gorm:"type:varchar(64)"`
	Meta      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (ActivityEvent) TableName() string {
	return "wb_activity_event"
}
