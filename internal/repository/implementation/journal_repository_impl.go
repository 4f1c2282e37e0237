package implementation

import (
	"context"
	"errors"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/mapper"
	"well-bot-be/internal/model"
	"well-bot-be/internal/repository/contract"
	"well-bot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type JournalRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.JournalMapper
}

func NewJournalRepository(db *gorm.DB) contract.JournalRepository {
	return &JournalRepositoryImpl{
		db:     db,
		mapper: mapper.NewJournalMapper(),
	}
}

func (r *JournalRepositoryImpl) Create(ctx context.Context, journal *entity.Journal) error {
	m := r.mapper.ToModel(journal)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*journal = *r.mapper.ToEntity(m)
	return nil
}

func (r *JournalRepositoryImpl) Update(ctx context.Context, journal *entity.Journal) error {
	m := r.mapper.ToModel(journal)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*journal = *r.mapper.ToEntity(m)
	return nil
}

func (r *JournalRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Journal, error) {
	var m model.Journal
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *JournalRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Journal, error) {
	var models []*model.Journal
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Journal, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
