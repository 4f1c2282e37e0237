package service

import (
	"context"

	"well-bot-be/pkg/card"
)

const ToolTestHello = "test.hello"

// Hello is a connectivity check for the tool endpoint
func Hello(ctx context.Context, env card.Envelope) (card.Card, error) {
	name := env.StringOr("name", "friend")
	return card.OK(ToolTestHello, "Hello", "Hello, "+name+"!", map[string]interface{}{"kind": card.KindInfo}), nil
}
