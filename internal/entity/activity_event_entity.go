package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityEvent struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Type      string
	RefId     *uuid.UUID
	Action    string
	Meta      map[string]interface{}
	CreatedAt time.Time
}
