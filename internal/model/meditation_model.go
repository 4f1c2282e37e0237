package model

import (
	"time"

	"github.com/google/uuid"
)

type MeditationVideo struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title           string    `gorm:"type:varchar(255);not null"`
	Uri             string    `gorm:"type:text;not null"`
	DurationSeconds int       `gorm:"not null;default:180"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (MeditationVideo) TableName() string {
	return "wb_meditation_video"
}

type MeditationLog struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index"`
	VideoId   *uuid.UUID `gorm:"type:uuid"`
	Outcome   string     `gorm:"type:varchar(32);not null"` // completed | cancelled | restarted
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (MeditationLog) TableName() string {
	return "wb_meditation_log"
}
