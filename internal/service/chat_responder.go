package service

import (
	"context"
	"fmt"
	"strings"

	"well-bot-be/internal/constant"
	"well-bot-be/pkg/llm"
)

// chatResponder produces small-talk replies with the completion backend
type chatResponder struct {
	llmProvider llm.LLMProvider
	options     []llm.Option
}

// NewChatResponder returns a turn.Responder backed by llmProvider
func NewChatResponder(llmProvider llm.LLMProvider, options ...llm.Option) *chatResponder {
	return &chatResponder{llmProvider: llmProvider, options: options}
}

func (r *chatResponder) Respond(ctx context.Context, text string, snippets []string) (string, error) {
	history := []llm.Message{{Role: constant.ChatMessageRoleSystem, Content: constant.ChatSystemPromptV1}}
	if len(snippets) > 0 {
		lines := make([]string, len(snippets))
		for i, s := range snippets {
			lines[i] = "- " + s
		}
		history = append(history, llm.Message{
			Role:    constant.ChatMessageRoleSystem,
			Content: fmt.Sprintf(constant.ChatMemoryContextV1, strings.Join(lines, "\n")),
		})
	}
	history = append(history, llm.Message{Role: constant.ChatMessageRoleUser, Content: text})

	reply, err := r.llmProvider.Chat(ctx, history, r.options...)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("empty completion")
	}
	return reply, nil
}
