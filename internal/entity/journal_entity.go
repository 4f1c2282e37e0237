package entity

import (
	"time"

	"github.com/google/uuid"
)

type Journal struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Body      string
	Mood      int
	Topics    []string
	IsDraft   bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}
