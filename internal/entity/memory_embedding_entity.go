package entity

import (
	"time"

	"github.com/google/uuid"
)

type MemoryEmbedding struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	Kind           string
	RefId          uuid.UUID
	ChunkIndex     int
	Document       string
	EmbeddingValue []float32
	Model          string
	CreatedAt      time.Time
}
