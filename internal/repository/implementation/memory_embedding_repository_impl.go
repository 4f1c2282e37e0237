package implementation

import (
	"context"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/mapper"
	"well-bot-be/internal/model"
	"well-bot-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type MemoryEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryEmbeddingMapper
}

func NewMemoryEmbeddingRepository(db *gorm.DB) contract.MemoryEmbeddingRepository {
	return &MemoryEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryEmbeddingMapper(),
	}
}

func (r *MemoryEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.MemoryEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// DeleteByRef hard deletes every chunk of a source row so re-indexing never leaves stale vectors
func (r *MemoryEmbeddingRepositoryImpl) DeleteByRef(ctx context.Context, kind string, refId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("kind = ? AND ref_id = ?", kind, refId).
		Delete(&model.MemoryEmbedding{}).Error
}

// SearchSimilarWithScore orders by cosine distance. pgvector's <=> is 1 - cosine similarity.
func (r *MemoryEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, userId uuid.UUID, embedding []float32, kinds []string, limit int) ([]*contract.ScoredMemoryEmbedding, error) {
	if limit <= 0 {
		limit = 8
	}

	type result struct {
		model.MemoryEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("wb_embeddings").
		Select("wb_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL")
	if len(kinds) > 0 {
		query = query.Where("kind IN ?", kinds)
	}

	err := query.
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredMemoryEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredMemoryEmbedding{
			Embedding:  r.mapper.ToEntity(&res.MemoryEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *MemoryEmbeddingRepositoryImpl) IndexedModels(ctx context.Context) ([]string, error) {
	var models []string
	err := r.db.WithContext(ctx).
		Model(&model.MemoryEmbedding{}).
		Distinct("model").
		Pluck("model", &models).Error
	return models, err
}
