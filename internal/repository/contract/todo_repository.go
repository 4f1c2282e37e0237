package contract

import (
	"context"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TodoRepository interface {
	CreateBulk(ctx context.Context, items []*entity.TodoItem) error
	Update(ctx context.Context, item *entity.TodoItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TodoItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
