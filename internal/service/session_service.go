package service

import (
	"context"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/session"
)

const (
	ToolSessionWake = session.ToolWake
	ToolSessionEnd  = session.ToolEnd
)

// ISessionService exposes session control as tools. The session effects themselves
// are applied by the turn pipeline.
type ISessionService interface {
	Wake(ctx context.Context, env card.Envelope) (card.Card, error)
	End(ctx context.Context, env card.Envelope) (card.Card, error)
}

type sessionService struct{}

func NewSessionService() ISessionService {
	return &sessionService{}
}

func (s *sessionService) Wake(ctx context.Context, env card.Envelope) (card.Card, error) {
	return session.WakeCard(), nil
}

func (s *sessionService) End(ctx context.Context, env card.Envelope) (card.Card, error) {
	reason := session.EndReason(env.StringOr("reason", string(session.EndManual)))
	switch reason {
	case session.EndManual, session.EndInactivity:
	default:
		return card.Card{}, card.Validation("reason must be manual or inactivity")
	}
	return session.EndCard(reason), nil
}
