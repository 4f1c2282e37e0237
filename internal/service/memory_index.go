package service

import (
	"context"

	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/retrieval"
)

// memoryIndex adapts the pgvector embedding table to the retrieval gateway
type memoryIndex struct {
	uowFactory unitofwork.RepositoryFactory
}

// NewMemoryIndex returns a retrieval.Index that also reports the indexed models
func NewMemoryIndex(uowFactory unitofwork.RepositoryFactory) *memoryIndex {
	return &memoryIndex{uowFactory: uowFactory}
}

var (
	_ retrieval.Index          = (*memoryIndex)(nil)
	_ retrieval.ModelInventory = (*memoryIndex)(nil)
)

func (m *memoryIndex) Query(ctx context.Context, userID string, vector []float32, kinds []retrieval.Kind, topK int) ([]retrieval.Hit, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	uow := m.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.MemoryEmbeddingRepository().SearchSimilarWithScore(ctx, UserUUID(userID), vector, names, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]retrieval.Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, retrieval.Hit{
			RefID:     row.Embedding.RefId.String(),
			Kind:      retrieval.Kind(row.Embedding.Kind),
			Snippet:   row.Embedding.Document,
			Score:     row.Similarity,
			CreatedAt: row.Embedding.CreatedAt,
		})
	}
	return hits, nil
}

func (m *memoryIndex) IndexedModels(ctx context.Context) ([]string, error) {
	return m.uowFactory.NewUnitOfWork(ctx).MemoryEmbeddingRepository().IndexedModels(ctx)
}
