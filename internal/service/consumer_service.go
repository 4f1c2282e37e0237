package service

import (
	"context"
	"encoding/json"
	"fmt"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/embedding"
	"well-bot-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// chunks stay well under the retrieval snippet-token budget
const (
	chunkWords   = 120
	chunkOverlap = 20
)

// IConsumerService runs the index-time embedding pipeline
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

// Consume subscribes and processes messages until ctx is cancelled
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexMemoryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("IndexConsumer", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if err := cs.index(ctx, payload); err != nil {
		cs.logger.Error("IndexConsumer", "Indexing failed", map[string]interface{}{
			"kind":   payload.Kind,
			"ref_id": payload.RefId,
			"error":  err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// index replaces every chunk of the source row with freshly embedded ones, recording
// the model that produced them
func (cs *consumerService) index(ctx context.Context, payload dto.IndexMemoryMessage) error {
	chunks := utils.SplitWords(payload.Text, chunkWords, chunkOverlap)
	model := cs.embeddingProvider.Model()

	rows := make([]*entity.MemoryEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		rows = append(rows, &entity.MemoryEmbedding{
			Id:             uuid.New(),
			UserId:         payload.UserId,
			Kind:           payload.Kind,
			RefId:          payload.RefId,
			ChunkIndex:     i,
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			Model:          model,
			CreatedAt:      payload.CreatedAt,
		})
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer uow.Rollback()

	if err := uow.MemoryEmbeddingRepository().DeleteByRef(ctx, payload.Kind, payload.RefId); err != nil {
		return fmt.Errorf("delete old embeddings: %w", err)
	}
	if err := uow.MemoryEmbeddingRepository().CreateBulk(ctx, rows); err != nil {
		return fmt.Errorf("create embeddings: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	cs.logger.Info("IndexConsumer", "Memory indexed", map[string]interface{}{
		"kind":   payload.Kind,
		"ref_id": payload.RefId,
		"chunks": len(rows),
		"model":  model,
	})
	return nil
}
