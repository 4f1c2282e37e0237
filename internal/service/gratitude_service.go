package service

import (
	"context"
	"fmt"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/retrieval"

	"github.com/google/uuid"
)

const (
	ToolGratitudeAdd = "gratitude.add"

	maxGratitudeWords = 100
)

type IGratitudeService interface {
	Add(ctx context.Context, env card.Envelope) (card.Card, error)
}

type gratitudeService struct {
	uowFactory     unitofwork.RepositoryFactory
	indexPublisher IIndexPublisher
	activity       IActivityRecorder
	logger         logger.ILogger
}

func NewGratitudeService(
	uowFactory unitofwork.RepositoryFactory,
	indexPublisher IIndexPublisher,
	activity IActivityRecorder,
	log logger.ILogger,
) IGratitudeService {
	return &gratitudeService{
		uowFactory:     uowFactory,
		indexPublisher: indexPublisher,
		activity:       activity,
		logger:         log,
	}
}

// Add accepts "text", falling back to "content" and then the utterance
func (s *gratitudeService) Add(ctx context.Context, env card.Envelope) (card.Card, error) {
	text := env.String("text")
	if text == "" {
		text = argOrExtract(env, "content", intent.ArgExtractors[intent.GratitudeAdd])
	}
	if text == "" {
		return card.Card{}, card.Validation("Gratitude text cannot be empty")
	}

	text, truncated := TruncateWords(text, maxGratitudeWords)
	text = SentenceCase(text)
	if truncated {
		text += "..."
	}

	item := &entity.GratitudeItem{
		Id:        uuid.New(),
		UserId:    UserUUID(env.UserId),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.GratitudeRepository().Create(ctx, item); err != nil {
		return card.Card{}, fmt.Errorf("save gratitude: %w", err)
	}

	if err := s.indexPublisher.Enqueue(ctx, dto.IndexMemoryMessage{
		UserId:    item.UserId,
		Kind:      string(retrieval.KindGratitude),
		RefId:     item.Id,
		Text:      item.Text,
		CreatedAt: item.CreatedAt,
	}); err != nil {
		s.logger.Warn("GratitudeService", "Failed to queue gratitude for indexing", map[string]interface{}{
			"gratitude_id": item.Id,
			"error":        err.Error(),
		})
	}

	s.activity.Record(ctx, item.UserId, "gratitude", &item.Id, "add", nil)

	return card.OK(ToolGratitudeAdd, "Gratitude Saved", "Saved: "+item.Text,
		map[string]interface{}{"kind": card.KindGratitude, "truncated": truncated},
	).WithPersisted(item.Id.String()), nil
}
