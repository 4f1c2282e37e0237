package service

import (
	"context"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/safety"
)

const ToolSafetyCheck = "safety.check"

// SafetyChecker is the safety gate as seen by the safety tool
type SafetyChecker interface {
	Check(ctx context.Context, history *safety.History, text, language string, hints map[string]interface{}) safety.Verdict
}

type ISafetyService interface {
	Check(ctx context.Context, env card.Envelope) (card.Card, error)
}

type safetyService struct {
	gate SafetyChecker
}

func NewSafetyService(gate SafetyChecker) ISafetyService {
	return &safetyService{gate: gate}
}

// Check screens args.text without debounce history; every call is independent
func (s *safetyService) Check(ctx context.Context, env card.Envelope) (card.Card, error) {
	text := env.String("text")
	if text == "" {
		return card.Card{}, card.Validation("Text is required")
	}

	verdict := s.gate.Check(ctx, safety.NewHistory(), text, env.StringOr("lang", "en"), map[string]interface{}{
		"context": env.StringOr("context", "chat"),
	})
	if verdict.Triggered {
		return safety.SupportCard(ToolSafetyCheck, verdict), nil
	}

	return card.OK(ToolSafetyCheck, "Safety Check Complete", "No safety concerns detected.",
		map[string]interface{}{
			"kind":    card.KindInfo,
			"action":  "none",
			"outcome": string(verdict.Outcome),
		}), nil
}
