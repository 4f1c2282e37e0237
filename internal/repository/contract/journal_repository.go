package contract

import (
	"context"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/repository/specification"
)

type JournalRepository interface {
	Create(ctx context.Context, journal *entity.Journal) error
	Update(ctx context.Context, journal *entity.Journal) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Journal, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Journal, error)
}
