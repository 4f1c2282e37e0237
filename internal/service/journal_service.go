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
	ToolJournalStart = "journal.start"
	ToolJournalStop  = "journal.stop"
	ToolJournalSave  = "journal.save"

	defaultJournalTitle = "Untitled Entry"
	defaultJournalMood  = 3
)

type IJournalService interface {
	Start(ctx context.Context, env card.Envelope) (card.Card, error)
	Stop(ctx context.Context, env card.Envelope) (card.Card, error)
	Save(ctx context.Context, env card.Envelope) (card.Card, error)
}

type journalService struct {
	uowFactory     unitofwork.RepositoryFactory
	indexPublisher IIndexPublisher
	activity       IActivityRecorder
	logger         logger.ILogger
}

func NewJournalService(
	uowFactory unitofwork.RepositoryFactory,
	indexPublisher IIndexPublisher,
	activity IActivityRecorder,
	log logger.ILogger,
) IJournalService {
	return &journalService{
		uowFactory:     uowFactory,
		indexPublisher: indexPublisher,
		activity:       activity,
		logger:         log,
	}
}

func (s *journalService) Start(ctx context.Context, env card.Envelope) (card.Card, error) {
	meta := map[string]interface{}{
		"kind":   card.KindJournal,
		"action": "start_overlay",
	}
	if topic := argOrExtract(env, "topic", intent.ArgExtractors[intent.JournalStart]); topic != "" {
		meta["topic"] = topic
	}
	return card.Overlay(ToolJournalStart, "Journal Session Started",
		"I'm listening to your thoughts. Speak naturally, and I'll help you capture your reflections.", meta), nil
}

func (s *journalService) Stop(ctx context.Context, env card.Envelope) (card.Card, error) {
	return card.OK(ToolJournalStop, "Journal Session Ended",
		"Journal session completed. Your thoughts have been captured.",
		map[string]interface{}{"kind": card.KindJournal}), nil
}

func (s *journalService) Save(ctx context.Context, env card.Envelope) (card.Card, error) {
	body := env.String("body")
	if body == "" {
		return card.Card{}, card.Validation("Journal body cannot be empty")
	}
	mood, set, err := env.WholeInt("mood")
	if err != nil {
		return card.Card{}, err
	}
	if !set {
		mood = defaultJournalMood
	}
	if mood < 1 || mood > 5 {
		return card.Card{}, card.Validation("Mood must be between 1 and 5")
	}

	journal := &entity.Journal{
		Id:        uuid.New(),
		UserId:    UserUUID(env.UserId),
		Title:     env.StringOr("title", defaultJournalTitle),
		Body:      body,
		Mood:      mood,
		Topics:    env.Strings("topics"),
		IsDraft:   env.Bool("is_draft", false),
		CreatedAt: time.Now().UTC(),
	}
	if journal.Topics == nil {
		journal.Topics = []string{}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.JournalRepository().Create(ctx, journal); err != nil {
		return card.Card{}, fmt.Errorf("save journal: %w", err)
	}

	status := "final"
	if journal.IsDraft {
		status = "draft"
	} else {
		err := s.indexPublisher.Enqueue(ctx, dto.IndexMemoryMessage{
			UserId:    journal.UserId,
			Kind:      string(retrieval.KindJournal),
			RefId:     journal.Id,
			Text:      journal.Title + "\n\n" + journal.Body,
			CreatedAt: journal.CreatedAt,
		})
		if err != nil {
			s.logger.Warn("JournalService", "Failed to queue journal for indexing", map[string]interface{}{
				"journal_id": journal.Id,
				"error":      err.Error(),
			})
		}
	}

	s.activity.Record(ctx, journal.UserId, "journal", &journal.Id, "save", map[string]interface{}{
		"status": status,
		"mood":   mood,
	})

	return card.OK(ToolJournalSave, "Journal Entry Saved",
		fmt.Sprintf("Your journal entry '%s' has been saved as %s.", journal.Title, status),
		map[string]interface{}{"kind": card.KindJournal, "status": status},
	).WithPersisted(journal.Id.String()), nil
}
