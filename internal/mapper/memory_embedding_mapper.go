package mapper

import (
	"well-bot-be/internal/entity"
	"well-bot-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type MemoryEmbeddingMapper struct{}

func NewMemoryEmbeddingMapper() *MemoryEmbeddingMapper {
	return &MemoryEmbeddingMapper{}
}

func (m *MemoryEmbeddingMapper) ToEntity(e *model.MemoryEmbedding) *entity.MemoryEmbedding {
	if e == nil {
		return nil
	}
	return &entity.MemoryEmbedding{
		Id:             e.Id,
		UserId:         e.UserId,
		Kind:           e.Kind,
		RefId:          e.RefId,
		ChunkIndex:     e.ChunkIndex,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		Model:          e.Model,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *MemoryEmbeddingMapper) ToModel(e *entity.MemoryEmbedding) *model.MemoryEmbedding {
	if e == nil {
		return nil
	}
	return &model.MemoryEmbedding{
		Id:             e.Id,
		UserId:         e.UserId,
		Kind:           e.Kind,
		RefId:          e.RefId,
		ChunkIndex:     e.ChunkIndex,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		Model:          e.Model,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *MemoryEmbeddingMapper) ToModels(embeddings []*entity.MemoryEmbedding) []*model.MemoryEmbedding {
	models := make([]*model.MemoryEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}
