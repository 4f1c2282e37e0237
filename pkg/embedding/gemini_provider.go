package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type embeddingRequestContentPart struct {
	Text string `json:"text"`
}

type embeddingRequestContent struct {
	Parts []embeddingRequestContentPart `json:"parts"`
}

type geminiEmbeddingRequest struct {
	Model    string                  `json:"model"`
	Content  embeddingRequestContent `json:"content"`
	TaskType string                  `json:"task_type,omitempty"`
}

type GeminiProvider struct {
	ApiKey  string
	ModelID string
	Client  *http.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiProvider{
		ApiKey:  apiKey,
		ModelID: model,
		Client:  &http.Client{},
	}
}

func (p *GeminiProvider) Model() string {
	return "gemini/" + p.ModelID
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	geminiReqJson, err := json.Marshal(geminiEmbeddingRequest{
		Model:    p.ModelID,
		Content:  embeddingRequestContent{Parts: []embeddingRequestContentPart{{Text: text}}},
		TaskType: taskType,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		p.ModelID,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var resEmbedding EmbeddingResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, err
	}
	resEmbedding.Embedding.Values = normalizeVector(resEmbedding.Embedding.Values)

	return &resEmbedding, nil
}
