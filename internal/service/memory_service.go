package service

import (
	"context"
	"fmt"
	"strings"

	"well-bot-be/pkg/card"
	"well-bot-be/pkg/retrieval"
	"well-bot-be/pkg/upstream"
)

const (
	ToolMemorySearch = "memory.search"

	defaultMemoryTopK = 8
)

// MemorySearcher is the retrieval gateway as seen by the memory tool
type MemorySearcher interface {
	Search(ctx context.Context, q retrieval.Query) retrieval.Outcome
}

type IMemoryService interface {
	Search(ctx context.Context, env card.Envelope) (card.Card, error)
}

type memoryService struct {
	searcher MemorySearcher
}

func NewMemoryService(searcher MemorySearcher) IMemoryService {
	return &memoryService{searcher: searcher}
}

// Search accepts "query", "top_k" and kinds either as "kinds" or "filters.kinds"
func (s *memoryService) Search(ctx context.Context, env card.Envelope) (card.Card, error) {
	query := env.String("query")
	if query == "" {
		return card.Card{}, card.Validation("Query cannot be empty")
	}

	kinds, err := memoryKinds(env)
	if err != nil {
		return card.Card{}, err
	}

	out := s.searcher.Search(ctx, retrieval.Query{
		UserID: env.UserId,
		Text:   query,
		Kinds:  kinds,
		TopK:   env.Int("top_k", defaultMemoryTopK),
	})

	lines := make([]string, len(out.Results))
	for i, r := range out.Results {
		lines[i] = fmt.Sprintf("[%s] %s", r.Kind, r.Snippet)
	}

	c := card.OK(ToolMemorySearch, "Memory Search Complete",
		fmt.Sprintf("Found %d relevant items:\n\n%s", len(out.Results), strings.Join(lines, "\n")),
		map[string]interface{}{
			"kind":          card.KindMemory,
			"results_count": len(out.Results),
			"query":         query,
			"status":        string(out.Status),
			"degraded":      out.Status != upstream.StatusOK,
			"results":       out.Results,
		})
	used := len(out.Results) > 0
	latency := out.Duration.Milliseconds()
	c.Diagnostics.MemoryUsed = &used
	c.Diagnostics.MemoryLatencyMs = &latency
	return c, nil
}

func memoryKinds(env card.Envelope) ([]retrieval.Kind, error) {
	raw := env.Strings("kinds")
	if len(raw) == 0 {
		if filters, ok := env.Args["filters"].(map[string]interface{}); ok {
			raw = env.WithArgs(filters).Strings("kinds")
		}
	}
	kinds := make([]retrieval.Kind, 0, len(raw))
	for _, k := range raw {
		kind := retrieval.Kind(strings.ToLower(strings.TrimSpace(k)))
		if !validKind(kind) {
			return nil, card.Validation(fmt.Sprintf("unknown memory kind %q", k))
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func validKind(k retrieval.Kind) bool {
	for _, known := range retrieval.AllKinds {
		if k == known {
			return true
		}
	}
	return false
}
