package service

import (
	"context"
	"fmt"
	"time"

	"well-bot-be/internal/entity"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/events"

	"github.com/google/uuid"
)

// ActivityEventFromPayload rebuilds an activity row from an activity.logged event
func ActivityEventFromPayload(e events.Event) (*entity.ActivityEvent, error) {
	data := e.Payload()
	userRaw, _ := data["user_id"].(string)
	userId, err := uuid.Parse(userRaw)
	if err != nil {
		return nil, fmt.Errorf("activity event: invalid user_id %q", userRaw)
	}
	activityType, _ := data["type"].(string)
	if activityType == "" {
		return nil, fmt.Errorf("activity event: missing type")
	}

	row := &entity.ActivityEvent{
		Id:        uuid.New(),
		UserId:    userId,
		Type:      activityType,
		CreatedAt: e.Timestamp(),
	}
	row.Action, _ = data["action"].(string)
	if meta, ok := data["meta"].(map[string]interface{}); ok {
		row.Meta = meta
	}
	if ref, _ := data["ref_id"].(string); ref != "" {
		if id, err := uuid.Parse(ref); err == nil {
			row.RefId = &id
		}
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row, nil
}

// NewActivityEventHandler persists activity.logged events. Malformed events are
// logged and acknowledged so they are not redelivered.
func NewActivityEventHandler(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) func(ctx context.Context, e events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		row, err := ActivityEventFromPayload(e)
		if err != nil {
			log.Warn("ActivityConsumer", "Dropping malformed activity event", map[string]interface{}{"error": err.Error()})
			return nil
		}
		return uowFactory.NewUnitOfWork(ctx).ActivityEventRepository().Create(ctx, row)
	}
}
