package entity

import (
	"time"

	"github.com/google/uuid"
)

type GratitudeItem struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Text      string
	CreatedAt time.Time
}
