package entity

import (
	"time"

	"github.com/google/uuid"
)

type Quote struct {
	Id       uuid.UUID
	Category string
	Text     string
	Source   string
}

type UserPreference struct {
	UserId   uuid.UUID
	Religion string
	Language string
	Extra    map[string]interface{}
}

type MeditationVideo struct {
	Id              uuid.UUID
	Title           string
	Uri             string
	DurationSeconds int
}

type MeditationLog struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	VideoId   *uuid.UUID
	Outcome   string
	CreatedAt time.Time
}
