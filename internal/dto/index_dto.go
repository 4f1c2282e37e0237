package dto

import (
	"time"

	"github.com/google/uuid"
)

// IndexMemoryMessage asks the index pipeline to (re)embed one source row
type IndexMemoryMessage struct {
	UserId    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	RefId     uuid.UUID `json:"ref_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
