package contract

import (
	"context"
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GratitudeRepository interface {
	Create(ctx context.Context, item *entity.GratitudeItem) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GratitudeItem, error)
}

type QuoteRepository interface {
	// PickUnseen returns a random quote of category not shown to the user since the given time,
	// or nil when every quote was seen
	PickUnseen(ctx context.Context, userId uuid.UUID, category string, since time.Time) (*entity.Quote, error)
	MarkSeen(ctx context.Context, userId, quoteId uuid.UUID, at time.Time) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type PreferenceRepository interface {
	FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserPreference, error)
	Upsert(ctx context.Context, pref *entity.UserPreference) error
}

type MeditationRepository interface {
	RandomVideo(ctx context.Context) (*entity.MeditationVideo, error)
	CreateLog(ctx context.Context, log *entity.MeditationLog) error
}

type ActivityEventRepository interface {
	Create(ctx context.Context, event *entity.ActivityEvent) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ActivityEvent, error)
}
