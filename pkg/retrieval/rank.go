package retrieval

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"
)

// Kind of indexed user data
type Kind string

const (
	KindMessage    Kind = "message"
	KindJournal    Kind = "journal"
	KindTodo       Kind = "todo"
	KindPreference Kind = "preference"
	KindGratitude  Kind = "gratitude"
)

// AllKinds is the default filter
var AllKinds = []Kind{KindMessage, KindJournal, KindTodo, KindPreference, KindGratitude}

// Hit is one row returned by the vector index
type Hit struct {
	RefID     string
	Kind      Kind
	Snippet   string
	Score     float64
	CreatedAt time.Time
}

// Result is a ranked, budget-admitted hit
type Result struct {
	Kind         Kind      `json:"kind"`
	RefID        string    `json:"ref_id"`
	Snippet      string    `json:"snippet"`
	Score        float64   `json:"score"`
	BoostedScore float64   `json:"boosted_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// RankConfig holds the post-query pipeline parameters
type RankConfig struct {
	MinScore      float64
	RecencyDecay  time.Duration
	RecencyWeight float64
	TokenBudget   int
	TopK          int
}

// EstimateTokens approximates model tokens at four characters per token
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// Boost applies an exponential recency decay: newer items gain up to RecencyWeight.
func Boost(score float64, createdAt, now time.Time, cfg RankConfig) float64 {
	if cfg.RecencyDecay <= 0 || cfg.RecencyWeight == 0 {
		return score
	}
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	return score * (1 + cfg.RecencyWeight*math.Exp(-float64(age)/float64(cfg.RecencyDecay)))
}

// Rank filters hits below MinScore, re-ranks by recency-boosted score and returns the
// longest prefix whose total snippet tokens fit TokenBudget. The first snippet that does
// not fit ends the list even when smaller ones follow.
func Rank(hits []Hit, now time.Time, cfg RankConfig) []Result {
	ranked := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Score < cfg.MinScore {
			continue
		}
		ranked = append(ranked, Result{
			Kind:         h.Kind,
			RefID:        h.RefID,
			Snippet:      h.Snippet,
			Score:        h.Score,
			BoostedScore: Boost(h.Score, h.CreatedAt, now, cfg),
			CreatedAt:    h.CreatedAt,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].BoostedScore != ranked[j].BoostedScore {
			return ranked[i].BoostedScore > ranked[j].BoostedScore
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	if cfg.TopK > 0 && len(ranked) > cfg.TopK {
		ranked = ranked[:cfg.TopK]
	}

	used := 0
	for i, r := range ranked {
		cost := EstimateTokens(r.Snippet)
		if used+cost > cfg.TokenBudget {
			return ranked[:i]
		}
		used += cost
	}
	return ranked
}
