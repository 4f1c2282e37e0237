package implementation

import (
	"context"
	"errors"
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/mapper"
	"well-bot-be/internal/model"
	"well-bot-be/internal/repository/contract"
	"well-bot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GratitudeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ActivityMapper
}

func NewGratitudeRepository(db *gorm.DB) contract.GratitudeRepository {
	return &GratitudeRepositoryImpl{db: db, mapper: mapper.NewActivityMapper()}
}

func (r *GratitudeRepositoryImpl) Create(ctx context.Context, item *entity.GratitudeItem) error {
	m := r.mapper.GratitudeToModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.GratitudeToEntity(m)
	return nil
}

func (r *GratitudeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GratitudeItem, error) {
	var models []*model.GratitudeItem
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.GratitudeItem, len(models))
	for i, m := range models {
		out[i] = r.mapper.GratitudeToEntity(m)
	}
	return out, nil
}

type QuoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ActivityMapper
}

func NewQuoteRepository(db *gorm.DB) contract.QuoteRepository {
	return &QuoteRepositoryImpl{db: db, mapper: mapper.NewActivityMapper()}
}

func (r *QuoteRepositoryImpl) PickUnseen(ctx context.Context, userId uuid.UUID, category string, since time.Time) (*entity.Quote, error) {
	seen := r.db.Model(&model.QuoteSeen{}).
		Select("quote_id").
		Where("user_id = ? AND seen_at >= ?", userId, since)

	var m model.Quote
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Where("id NOT IN (?)", seen).
		Order("random()").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.QuoteToEntity(&m), nil
}

func (r *QuoteRepositoryImpl) MarkSeen(ctx context.Context, userId, quoteId uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Create(&model.QuoteSeen{
		Id:      uuid.New(),
		UserId:  userId,
		QuoteId: quoteId,
		SeenAt:  at,
	}).Error
}

func (r *QuoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Quote{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type PreferenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ActivityMapper
}

func NewPreferenceRepository(db *gorm.DB) contract.PreferenceRepository {
	return &PreferenceRepositoryImpl{db: db, mapper: mapper.NewActivityMapper()}
}

func (r *PreferenceRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserPreference, error) {
	var m model.UserPreference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PreferenceToEntity(&m), nil
}

func (r *PreferenceRepositoryImpl) Upsert(ctx context.Context, pref *entity.UserPreference) error {
	m := r.mapper.PreferenceToModel(pref)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"religion", "language", "extra", "updated_at"}),
	}).Create(m).Error
}

type MeditationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ActivityMapper
}

func NewMeditationRepository(db *gorm.DB) contract.MeditationRepository {
	return &MeditationRepositoryImpl{db: db, mapper: mapper.NewActivityMapper()}
}

func (r *MeditationRepositoryImpl) RandomVideo(ctx context.Context) (*entity.MeditationVideo, error) {
	var m model.MeditationVideo
	if err := r.db.WithContext(ctx).Order("random()").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VideoToEntity(&m), nil
}

func (r *MeditationRepositoryImpl) CreateLog(ctx context.Context, log *entity.MeditationLog) error {
	m := r.mapper.MeditationLogToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	log.Id = m.Id
	log.CreatedAt = m.CreatedAt
	return nil
}

type ActivityEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ActivityMapper
}

func NewActivityEventRepository(db *gorm.DB) contract.ActivityEventRepository {
	return &ActivityEventRepositoryImpl{db: db, mapper: mapper.NewActivityMapper()}
}

func (r *ActivityEventRepositoryImpl) Create(ctx context.Context, event *entity.ActivityEvent) error {
	m := r.mapper.EventToModel(event)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*event = *r.mapper.EventToEntity(m)
	return nil
}

func (r *ActivityEventRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ActivityEvent, error) {
	var models []*model.ActivityEvent
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ActivityEvent, len(models))
	for i, m := range models {
		out[i] = r.mapper.EventToEntity(m)
	}
	return out, nil
}
