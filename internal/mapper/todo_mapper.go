package mapper

import (
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/model"

	"gorm.io/gorm"
)

type TodoMapper struct{}

func NewTodoMapper() *TodoMapper {
	return &TodoMapper{}
}

func (m *TodoMapper) ToEntity(t *model.TodoItem) *entity.TodoItem {
	if t == nil {
		return nil
	}
	return &entity.TodoItem{
		Id:          t.Id,
		UserId:      t.UserId,
		Title:       t.Title,
		Status:      t.Status,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		IsDeleted:   t.DeletedAt.Valid,
	}
}

func (m *TodoMapper) ToModel(t *entity.TodoItem) *model.TodoItem {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	return &model.TodoItem{
		Id:          t.Id,
		UserId:      t.UserId,
		Title:       t.Title,
		Status:      t.Status,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *TodoMapper) ToEntities(items []*model.TodoItem) []*entity.TodoItem {
	entities := make([]*entity.TodoItem, len(items))
	for i, t := range items {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

func (m *TodoMapper) ToModels(items []*entity.TodoItem) []*model.TodoItem {
	models := make([]*model.TodoItem, len(items))
	for i, t := range items {
		models[i] = m.ToModel(t)
	}
	return models
}
