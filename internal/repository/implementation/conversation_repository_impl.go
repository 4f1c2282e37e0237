package implementation

import (
	"context"
	"errors"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/mapper"
	"well-bot-be/internal/model"
	"well-bot-be/internal/repository/contract"
	"well-bot-be/internal/repository/scope"
	"well-bot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ToModel(conversation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*conversation = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) Ensure(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ToModel(conversation)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(m).Error
}

func (r *ConversationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Conversation{}, id).Error
}

func (r *ConversationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	var m model.Conversation
	query := applySpecifications(r.db.WithContext(ctx).Preload("Messages"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	var models []*model.Conversation
	query := applySpecifications(r.db.WithContext(ctx).Preload("Messages").Scopes(scope.OrderByCreatedDesc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Conversation, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Message, len(models))
	for i, m := range models {
		out[i] = r.mapper.MessageToEntity(m)
	}
	return out, nil
}
