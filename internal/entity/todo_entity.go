package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TodoStatusOpen = "open"
	TodoStatusDone = "done"
)

type TodoItem struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	Status      string
	CompletedAt *time.Time
	CreatedAt   time.Time
	IsDeleted   bool
}
