package implementation

import (
	"context"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/mapper"
	"well-bot-be/internal/model"
	"well-bot-be/internal/repository/contract"
	"well-bot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TodoRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TodoMapper
}

func NewTodoRepository(db *gorm.DB) contract.TodoRepository {
	return &TodoRepositoryImpl{
		db:     db,
		mapper: mapper.NewTodoMapper(),
	}
}

func (r *TodoRepositoryImpl) CreateBulk(ctx context.Context, items []*entity.TodoItem) error {
	if len(items) == 0 {
		return nil
	}
	models := r.mapper.ToModels(items)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*items[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *TodoRepositoryImpl) Update(ctx context.Context, item *entity.TodoItem) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *TodoRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TodoItem{}, id).Error
}

func (r *TodoRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TodoItem, error) {
	var models []*model.TodoItem
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TodoRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.TodoItem{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
