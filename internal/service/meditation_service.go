package service

import (
	"context"
	"fmt"
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/card"

	"github.com/google/uuid"
)

const (
	ToolMeditationPlay    = "meditation.play"
	ToolMeditationCancel  = "meditation.cancel"
	ToolMeditationRestart = "meditation.restart"
	ToolMeditationLog     = "meditation.log"

	MeditationCompleted = "completed"
	MeditationCancelled = "cancelled"
)

var defaultMeditationVideo = entity.MeditationVideo{
	Title:           "Three Minute Breathing Space",
	Uri:             "https://www.youtube.com/watch?v=SEfs5TJZ6Nk",
	DurationSeconds: 180,
}

type IMeditationService interface {
	Play(ctx context.Context, env card.Envelope) (card.Card, error)
	Cancel(ctx context.Context, env card.Envelope) (card.Card, error)
	Restart(ctx context.Context, env card.Envelope) (card.Card, error)
	Log(ctx context.Context, env card.Envelope) (card.Card, error)
}

type meditationService struct {
	uowFactory unitofwork.RepositoryFactory
	activity   IActivityRecorder
	logger     logger.ILogger
}

func NewMeditationService(uowFactory unitofwork.RepositoryFactory, activity IActivityRecorder, log logger.ILogger) IMeditationService {
	return &meditationService{
		uowFactory: uowFactory,
		activity:   activity,
		logger:     log,
	}
}

func (s *meditationService) Play(ctx context.Context, env card.Envelope) (card.Card, error) {
	video, err := s.uowFactory.NewUnitOfWork(ctx).MeditationRepository().RandomVideo(ctx)
	if err != nil {
		return card.Card{}, fmt.Errorf("pick meditation video: %w", err)
	}
	if video == nil {
		v := defaultMeditationVideo
		video = &v
	}

	meta := map[string]interface{}{
		"kind":             card.KindMeditation,
		"action":           "play",
		"duration_minutes": (video.DurationSeconds + 59) / 60,
		"video_title":      video.Title,
		"video_uri":        video.Uri,
	}
	if video.Id != uuid.Nil {
		meta["video_id"] = video.Id.String()
	}

	s.activity.Record(ctx, UserUUID(env.UserId), "meditation", nil, "play", map[string]interface{}{"video_uri": video.Uri})

	return card.OK(ToolMeditationPlay, "Meditation Started",
		"Beginning your 3-minute meditation session. Find a comfortable position and let the guidance begin.", meta), nil
}

func (s *meditationService) Cancel(ctx context.Context, env card.Envelope) (card.Card, error) {
	if _, err := s.log(ctx, env, MeditationCancelled); err != nil {
		s.logger.Warn("MeditationService", "Failed to log cancelled session", map[string]interface{}{"error": err.Error()})
	}
	return card.OK(ToolMeditationCancel, "Meditation Cancelled",
		"Meditation session cancelled. How are you feeling right now?",
		map[string]interface{}{"kind": card.KindMeditation, "action": "cancel"}), nil
}

func (s *meditationService) Restart(ctx context.Context, env card.Envelope) (card.Card, error) {
	return card.OK(ToolMeditationRestart, "Meditation Restarted",
		"Meditation session restarted. Let's begin again.",
		map[string]interface{}{"kind": card.KindMeditation, "action": "restart"}), nil
}

func (s *meditationService) Log(ctx context.Context, env card.Envelope) (card.Card, error) {
	outcome := env.StringOr("outcome", MeditationCompleted)
	if outcome != MeditationCompleted && outcome != MeditationCancelled {
		return card.Card{}, card.Validation("outcome must be completed or cancelled")
	}
	entry, err := s.log(ctx, env, outcome)
	if err != nil {
		return card.Card{}, err
	}
	return card.OK(ToolMeditationLog, "Meditation Logged", "Your meditation session has been recorded.",
		map[string]interface{}{"kind": card.KindMeditation, "outcome": outcome},
	).WithPersisted(entry.Id.String()), nil
}

func (s *meditationService) log(ctx context.Context, env card.Envelope, outcome string) (*entity.MeditationLog, error) {
	entry := &entity.MeditationLog{
		Id:        uuid.New(),
		UserId:    UserUUID(env.UserId),
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	}
	if raw := env.String("video_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, card.Validation("video_id must be a UUID")
		}
		entry.VideoId = &id
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).MeditationRepository().CreateLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("log meditation: %w", err)
	}
	s.activity.Record(ctx, entry.UserId, "meditation", &entry.Id, outcome, nil)
	return entry, nil
}
