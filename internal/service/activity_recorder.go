package service

import (
	"context"
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/events"

	"github.com/google/uuid"
)

// IActivityRecorder logs user activity for analytics. Failures are logged, never returned.
type IActivityRecorder interface {
	Record(ctx context.Context, userId uuid.UUID, activityType string, refId *uuid.UUID, action string, meta map[string]interface{})
}

type activityRecorder struct {
	publisher  events.Publisher
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

// NewActivityRecorder publishes activity events when a publisher is present and
// writes them directly otherwise
func NewActivityRecorder(publisher events.Publisher, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IActivityRecorder {
	return &activityRecorder{publisher: publisher, uowFactory: uowFactory, logger: log}
}

func (r *activityRecorder) Record(ctx context.Context, userId uuid.UUID, activityType string, refId *uuid.UUID, action string, meta map[string]interface{}) {
	if r.publisher != nil {
		ref := ""
		if refId != nil {
			ref = refId.String()
		}
		err := r.publisher.Publish(ctx, events.ActivityLogged(userId.String(), activityType, ref, action, meta))
		if err == nil {
			return
		}
		r.logger.Warn("ActivityRecorder", "Publish failed, writing directly", map[string]interface{}{
			"type":  activityType,
			"error": err.Error(),
		})
	}

	event := &entity.ActivityEvent{
		Id:        uuid.New(),
		UserId:    userId,
		Type:      activityType,
		RefId:     refId,
		Action:    action,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.uowFactory.NewUnitOfWork(ctx).ActivityEventRepository().Create(ctx, event); err != nil {
		r.logger.Error("ActivityRecorder", "Failed to write activity event", map[string]interface{}{
			"type":  activityType,
			"error": err.Error(),
		})
	}
}
