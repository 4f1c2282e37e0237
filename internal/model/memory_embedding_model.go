package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// MemoryEmbedding is one indexed chunk of user data. Model records the embedding model
// that produced the vector; queries must use the same one.
type MemoryEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind           string          `gorm:"type:varchar(32);not null;index"`
	RefId          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	Model          string          `gorm:"type:varchar(128);not null;index"`
	CreatedAt      time.Time       `gorm:"not null"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (MemoryEmbedding) TableName() string {
	return "wb_embeddings"
}
