package service

import (
	"context"
	"fmt"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/repository/scope"
	"well-bot-be/internal/repository/specification"
	"well-bot-be/internal/repository/unitofwork"
	"well-bot-be/pkg/card"

	"github.com/google/uuid"
)

const ToolActivityLog = "activityevent.log"

type IActivityService interface {
	Log(ctx context.Context, env card.Envelope) (card.Card, error)
	Recent(ctx context.Context, userId uuid.UUID, activityType string, limit int) ([]*dto.ActivityEventResponse, error)
}

type activityService struct {
	uowFactory unitofwork.RepositoryFactory
	recorder   IActivityRecorder
}

func NewActivityService(uowFactory unitofwork.RepositoryFactory, recorder IActivityRecorder) IActivityService {
	return &activityService{
		uowFactory: uowFactory,
		recorder:   recorder,
	}
}

func (s *activityService) Log(ctx context.Context, env card.Envelope) (card.Card, error) {
	activityType := env.String("type")
	if activityType == "" {
		return card.Card{}, card.Validation("Activity type is required")
	}
	action := env.String("action")

	var refId *uuid.UUID
	if raw := env.String("ref_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return card.Card{}, card.Validation("ref_id must be a UUID")
		}
		refId = &id
	}

	var meta map[string]interface{}
	if m, ok := env.Args["meta"].(map[string]interface{}); ok {
		meta = m
	}

	s.recorder.Record(ctx, UserUUID(env.UserId), activityType, refId, action, meta)

	return card.OK(ToolActivityLog, "Activity Logged",
		fmt.Sprintf("Logged %s activity: %s", activityType, action),
		map[string]interface{}{"kind": card.KindInfo, "event_type": activityType}), nil
}

// Recent lists the newest activity events of a user, optionally of one type
func (s *activityService) Recent(ctx context.Context, userId uuid.UUID, activityType string, limit int) ([]*dto.ActivityEventResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	specs := []specification.Specification{
		specification.ByUserID{UserID: userId},
		specification.Scope(scope.Recent(limit)),
	}
	if activityType != "" {
		specs = append(specs, specification.Filter("type", activityType))
	}

	events, err := s.uowFactory.NewUnitOfWork(ctx).ActivityEventRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ActivityEventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, &dto.ActivityEventResponse{
			Id:        e.Id,
			Type:      e.Type,
			RefId:     e.RefId,
			Action:    e.Action,
			Meta:      e.Meta,
			CreatedAt: e.CreatedAt,
		})
	}
	return res, nil
}
