package unitofwork

import (
	"context"

	"well-bot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	JournalRepository() contract.JournalRepository
	TodoRepository() contract.TodoRepository
	GratitudeRepository() contract.GratitudeRepository
	QuoteRepository() contract.QuoteRepository
	PreferenceRepository() contract.PreferenceRepository
	MeditationRepository() contract.MeditationRepository
	ActivityEventRepository() contract.ActivityEventRepository
	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	MemoryEmbeddingRepository() contract.MemoryEmbeddingRepository
}
