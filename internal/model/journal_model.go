package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Journal struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Title     string                      `gorm:"type:varchar(255);not null"`
	Body      string                      `gorm:"type:text"`
	Mood      int                         `gorm:"type:smallint;default:3"`
	Topics    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	IsDraft   bool                        `gorm:"default:false"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt              `gorm:"index"`
}

func (Journal) TableName() string {
	return "wb_journal"
}
