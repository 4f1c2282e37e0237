package contract

import (
	"context"

	"well-bot-be/internal/entity"

	"github.com/google/uuid"
)

// ScoredMemoryEmbedding wraps MemoryEmbedding with its cosine similarity
type ScoredMemoryEmbedding struct {
	Embedding  *entity.MemoryEmbedding
	Similarity float64
}

type MemoryEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.MemoryEmbedding) error
	DeleteByRef(ctx context.Context, kind string, refId uuid.UUID) error
	SearchSimilarWithScore(ctx context.Context, userId uuid.UUID, embedding []float32, kinds []string, limit int) ([]*ScoredMemoryEmbedding, error)
	// IndexedModels lists the distinct embedding models present in the index
	IndexedModels(ctx context.Context) ([]string, error)
}
