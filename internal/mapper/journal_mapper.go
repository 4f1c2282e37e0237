package mapper

import (
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/model"

	"gorm.io/datatypes"
)

type JournalMapper struct{}

func NewJournalMapper() *JournalMapper {
	return &JournalMapper{}
}

func (m *JournalMapper) ToEntity(j *model.Journal) *entity.Journal {
	if j == nil {
		return nil
	}

	var updatedAt *time.Time
	if !j.UpdatedAt.IsZero() {
		t := j.UpdatedAt
		updatedAt = &t
	}

	return &entity.Journal{
		Id:        j.Id,
		UserId:    j.UserId,
		Title:     j.Title,
		Body:      j.Body,
		Mood:      j.Mood,
		Topics:    append([]string{}, j.Topics...),
		IsDraft:   j.IsDraft,
		CreatedAt: j.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *JournalMapper) ToModel(j *entity.Journal) *model.Journal {
	if j == nil {
		return nil
	}

	var updatedAt time.Time
	if j.UpdatedAt != nil {
		updatedAt = *j.UpdatedAt
	}

	return &model.Journal{
		Id:        j.Id,
		UserId:    j.UserId,
		Title:     j.Title,
		Body:      j.Body,
		Mood:      j.Mood,
		Topics:    datatypes.JSONSlice[string](j.Topics),
		IsDraft:   j.IsDraft,
		CreatedAt: j.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
