package embedding

import (
	"context"
	"fmt"
	"math"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// Task types understood by providers that distinguish query from document embeddings
const (
	TaskQuery    = "RETRIEVAL_QUERY"
	TaskDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
	// Model identifies the embedding space. Vectors from different models are not comparable.
	Model() string
}

// Config selects an embedding backend
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// NewProvider builds the configured provider
func NewProvider(cfg Config) (EmbeddingProvider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an API key")
		}
		return NewGeminiProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// pgvector cosine distance and the topic cache both assume unit vectors.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
