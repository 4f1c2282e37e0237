package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"well-bot-be/pkg/llm"
)

// Classification is the structured output of the fallback classifier
type Classification struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Args       map[string]interface{} `json:"args"`
}

// Classifier is the fallback tier, called only when no fast-path matches
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// ErrMalformed is returned when the classifier output violates its contract
var ErrMalformed = errors.New("malformed classifier output")

const classifierPrompt = `You are an intent classifier for a wellness assistant. Analyze the user's input and determine their intent.

Available intents:
- small_talk: General conversation, questions, greetings, casual chat
- journal.start: Starting a journaling session
- gratitude.add: Adding a gratitude entry
- todo.add: Adding a to-do item
- todo.list: Showing to-do list
- todo.complete: Completing a to-do item
- todo.delete: Deleting a to-do item
- quote.get: Getting a spiritual quote
- meditation.play: Starting meditation
- meditation.stop: Stopping a meditation that is playing
- session.end: Ending the session

Respond with JSON only in this exact format:
{"intent": "intent_name", "confidence": 0.0-1.0, "args": {"key": "value"}}`

// LLMClassifier asks a chat model for a structured classification
type LLMClassifier struct {
	provider llm.LLMProvider
}

// NewLLMClassifier creates a classifier backed by provider
func NewLLMClassifier(provider llm.LLMProvider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	response, err := c.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: classifierPrompt},
		{Role: "user", Content: text},
	}, llm.WithTemperature(0.1), llm.WithMaxTokens(100), llm.WithJSONOutput())
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}
	return ParseClassification(response)
}

// ParseClassification decodes and validates classifier output. All three fields must
// be present, the intent must be known and confidence must lie in [0,1].
func ParseClassification(response string) (Classification, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return Classification{}, fmt.Errorf("%w: no JSON found", ErrMalformed)
	}

	var raw struct {
		Intent     *string                 `json:"intent"`
		Confidence *float64                `json:"confidence"`
		Args       *map[string]interface{} `json:"args"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Intent == nil || raw.Confidence == nil || raw.Args == nil {
		return Classification{}, fmt.Errorf("%w: missing required fields", ErrMalformed)
	}

	name := strings.ToLower(strings.TrimSpace(*raw.Intent))
	if !Valid(name) {
		return Classification{}, fmt.Errorf("%w: unknown intent %q", ErrMalformed, name)
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return Classification{}, fmt.Errorf("%w: confidence %v out of range", ErrMalformed, *raw.Confidence)
	}

	args := *raw.Args
	if args == nil {
		args = map[string]interface{}{}
	}
	return Classification{Intent: name, Confidence: *raw.Confidence, Args: args}, nil
}

func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return response[startIdx : endIdx+1]
}
