package unitofwork

import (
	"context"
	"fmt"

	"well-bot-be/internal/repository/contract"
	"well-bot-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is a no-op after Commit so it can always be deferred
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) JournalRepository() contract.JournalRepository {
	return implementation.NewJournalRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TodoRepository() contract.TodoRepository {
	return implementation.NewTodoRepository(u.getDB())
}

func (u *UnitOfWorkImpl) GratitudeRepository() contract.GratitudeRepository {
	return implementation.NewGratitudeRepository(u.getDB())
}

func (u *UnitOfWorkImpl) QuoteRepository() contract.QuoteRepository {
	return implementation.NewQuoteRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PreferenceRepository() contract.PreferenceRepository {
	return implementation.NewPreferenceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MeditationRepository() contract.MeditationRepository {
	return implementation.NewMeditationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ActivityEventRepository() contract.ActivityEventRepository {
	return implementation.NewActivityEventRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConversationRepository() contract.ConversationRepository {
	return implementation.NewConversationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MemoryEmbeddingRepository() contract.MemoryEmbeddingRepository {
	return implementation.NewMemoryEmbeddingRepository(u.getDB())
}
