// FILE: pkg/retrieval/gateway.go
// PURPOSE: Budgeted, fail-open memory search over the per-user vector index

package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/embedding"
	"well-bot-be/pkg/upstream"
)

const module = "RetrievalGateway"

// Index is the external similarity index. Implementations must restrict results to
// userID and kinds.
type Index interface {
	Query(ctx context.Context, userID string, vector []float32, kinds []Kind, topK int) ([]Hit, error)
}

// ModelInventory is implemented by indexes that record which embedding model wrote each row
type ModelInventory interface {
	IndexedModels(ctx context.Context) ([]string, error)
}

// ErrModelMismatch is returned when indexed vectors come from a different model than
// the one configured for queries
var ErrModelMismatch = errors.New("embedding model mismatch")

// Config of the gateway
type Config struct {
	RankConfig
	Budget        time.Duration
	EmbedCacheTTL time.Duration
}

// Query describes one search
type Query struct {
	UserID string
	Text   string
	Kinds  []Kind
	TopK   int
}

// Outcome of a search. Results is empty, never nil, whenever Status is not ok.
type Outcome struct {
	Results  []Result
	Status   upstream.Status
	Err      error
	Duration time.Duration
}

// Gateway is safe for concurrent use
type Gateway struct {
	embedder embedding.EmbeddingProvider
	index    Index
	cfg      Config
	vectors  *cache.Cache
	log      logger.ILogger
	now      func() time.Time
}

// NewGateway creates a gateway
func NewGateway(embedder embedding.EmbeddingProvider, index Index, cfg Config, log logger.ILogger) *Gateway {
	ttl := cfg.EmbedCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Gateway{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		vectors:  cache.New(ttl, 2*ttl),
		log:      log,
		now:      time.Now,
	}
}

// Model returns the configured embedding model
func (g *Gateway) Model() string {
	return g.embedder.Model()
}

// VerifyModel checks that every indexed vector was written with the query-time model
func (g *Gateway) VerifyModel(ctx context.Context) error {
	inv, ok := g.index.(ModelInventory)
	if !ok {
		return nil
	}
	models, err := inv.IndexedModels(ctx)
	if err != nil {
		return fmt.Errorf("list indexed models: %w", err)
	}
	for _, m := range models {
		if m != g.embedder.Model() {
			return fmt.Errorf("%w: index has %q, queries use %q", ErrModelMismatch, m, g.embedder.Model())
		}
	}
	return nil
}

// Embed returns the query vector for text under the gateway budget
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	res := upstream.Call(ctx, g.cfg.Budget, func(ctx context.Context) ([]float32, error) {
		return g.embed(ctx, text)
	})
	if !res.OK() {
		return nil, res.Err
	}
	return res.Value, nil
}

func (g *Gateway) embed(ctx context.Context, text string) ([]float32, error) {
	key := g.cacheKey(text)
	if v, found := g.vectors.Get(key); found {
		return v.([]float32), nil
	}
	resp, err := g.embedder.Generate(ctx, text, embedding.TaskQuery)
	if err != nil {
		return nil, err
	}
	vec := resp.Embedding.Values
	g.vectors.Set(key, vec, cache.DefaultExpiration)
	return vec, nil
}

func (g *Gateway) cacheKey(text string) string {
	h := sha256.Sum256([]byte(g.embedder.Model() + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// Search embeds the query text and searches the index within one budget
func (g *Gateway) Search(ctx context.Context, q Query) Outcome {
	res := upstream.Call(ctx, g.cfg.Budget, func(ctx context.Context) ([]Result, error) {
		vec, err := g.embed(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		return g.query(ctx, q.UserID, vec, q.Kinds, q.TopK)
	})
	return g.outcome(res, q.UserID)
}

// SearchVector searches with a precomputed query vector
func (g *Gateway) SearchVector(ctx context.Context, userID string, vector []float32, kinds []Kind, topK int) Outcome {
	res := upstream.Call(ctx, g.cfg.Budget, func(ctx context.Context) ([]Result, error) {
		return g.query(ctx, userID, vector, kinds, topK)
	})
	return g.outcome(res, userID)
}

func (g *Gateway) query(ctx context.Context, userID string, vector []float32, kinds []Kind, topK int) ([]Result, error) {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	if topK <= 0 {
		topK = g.cfg.TopK
	}
	hits, err := g.index.Query(ctx, userID, vector, kinds, topK)
	if err != nil {
		return nil, err
	}
	rc := g.cfg.RankConfig
	rc.TopK = topK
	return Rank(hits, g.now(), rc), nil
}

func (g *Gateway) outcome(res upstream.Result[[]Result], userID string) Outcome {
	if !res.OK() {
		g.log.Warn(module, "Memory search failed open", map[string]interface{}{
			"status":      string(res.Status),
			"error":       errString(res.Err),
			"duration_ms": res.Duration.Milliseconds(),
			"user_id":     userID,
		})
		return Outcome{Results: []Result{}, Status: res.Status, Err: res.Err, Duration: res.Duration}
	}
	results := res.Value
	if results == nil {
		results = []Result{}
	}
	return Outcome{Results: results, Status: upstream.StatusOK, Duration: res.Duration}
}

// Snippets returns the result snippets in rank order
func Snippets(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Snippet
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
