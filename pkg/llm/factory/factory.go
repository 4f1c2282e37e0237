package factory

import (
	"fmt"

	"well-bot-be/pkg/llm"
	"well-bot-be/pkg/llm/deepseek"
	"well-bot-be/pkg/llm/ollama"
)

// Config selects and configures a chat backend
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "deepseek":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("deepseek provider requires an API key")
		}
		return deepseek.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
