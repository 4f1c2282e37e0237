package turn

import (
	"context"
	"fmt"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
)

// Handler executes one activity tool
type Handler func(ctx context.Context, env card.Envelope) (card.Card, error)

// Effect is the session side effect applied after a successful tool card
type Effect int

const (
	EffectNone Effect = iota
	// EffectSuspend disables inactivity timers, e.g. while media plays
	EffectSuspend
	EffectResume
	EffectEndSession
)

// Entry binds an intent to its tool
type Entry struct {
	Tool    string
	Handler Handler
	Effect  Effect
}

// Dispatch is the closed table of tool intents
type Dispatch map[intent.Intent]Entry

// Validate requires exactly one handler for every tool intent and nothing else
func (d Dispatch) Validate() error {
	for _, i := range intent.All {
		if !i.IsTool() {
			continue
		}
		e, ok := d[i]
		if !ok || e.Handler == nil {
			return fmt.Errorf("dispatch: no handler for %s", i)
		}
		if e.Tool == "" {
			return fmt.Errorf("dispatch: %s has no tool name", i)
		}
	}
	for i := range d {
		if !i.IsTool() {
			return fmt.Errorf("dispatch: %s is not a tool intent", i)
		}
	}
	return nil
}
