package mapper

import (
	"well-bot-be/internal/entity"
	"well-bot-be/internal/model"
)

// ActivityMapper covers the small activity tables: gratitude, quotes, preferences,
// meditation and activity events
type ActivityMapper struct{}

func NewActivityMapper() *ActivityMapper {
	return &ActivityMapper{}
}

func (m *ActivityMapper) GratitudeToEntity(g *model.GratitudeItem) *entity.GratitudeItem {
	if g == nil {
		return nil
	}
	return &entity.GratitudeItem{Id: g.Id, UserId: g.UserId, Text: g.Text, CreatedAt: g.CreatedAt}
}

func (m *ActivityMapper) GratitudeToModel(g *entity.GratitudeItem) *model.GratitudeItem {
	if g == nil {
		return nil
	}
	return &model.GratitudeItem{Id: g.Id, UserId: g.UserId, Text: g.Text, CreatedAt: g.CreatedAt}
}

func (m *ActivityMapper) QuoteToEntity(q *model.Quote) *entity.Quote {
	if q == nil {
		return nil
	}
	return &entity.Quote{Id: q.Id, Category: q.Category, Text: q.Text, Source: q.Source}
}

func (m *ActivityMapper) PreferenceToEntity(p *model.UserPreference) *entity.UserPreference {
	if p == nil {
		return nil
	}
	return &entity.UserPreference{
		UserId:   p.UserId,
		Religion: p.Religion,
		Language: p.Language,
		Extra:    fromJSON(p.Extra),
	}
}

func (m *ActivityMapper) PreferenceToModel(p *entity.UserPreference) *model.UserPreference {
	if p == nil {
		return nil
	}
	return &model.UserPreference{
		UserId:   p.UserId,
		Religion: p.Religion,
		Language: p.Language,
		Extra:    toJSON(p.Extra),
	}
}

func (m *ActivityMapper) VideoToEntity(v *model.MeditationVideo) *entity.MeditationVideo {
	if v == nil {
		return nil
	}
	return &entity.MeditationVideo{Id: v.Id, Title: v.Title, Uri: v.Uri, DurationSeconds: v.DurationSeconds}
}

func (m *ActivityMapper) MeditationLogToModel(l *entity.MeditationLog) *model.MeditationLog {
	if l == nil {
		return nil
	}
	return &model.MeditationLog{Id: l.Id, UserId: l.UserId, VideoId: l.VideoId, Outcome: l.Outcome, CreatedAt: l.CreatedAt}
}

func (m *ActivityMapper) EventToEntity(e *model.ActivityEvent) *entity.ActivityEvent {
	if e == nil {
		return nil
	}
	return &entity.ActivityEvent{
		Id:        e.Id,
		UserId:    e.UserId,
		Type:      e.Type,
		RefId:     e.RefId,
		Action:    e.Action,
		Meta:      fromJSON(e.Meta),
		CreatedAt: e.CreatedAt,
	}
}

func (m *ActivityMapper) EventToModel(e *entity.ActivityEvent) *model.ActivityEvent {
	if e == nil {
		return nil
	}
	return &model.ActivityEvent{
		Id:        e.Id,
		UserId:    e.UserId,
		Type:      e.Type,
		RefId:     e.RefId,
		Action:    e.Action,
		Meta:      toJSON(e.Meta),
		CreatedAt: e.CreatedAt,
	}
}
