package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/lingobot/internal/httpjson"
)

// OllamaBackend generates with a local model through Ollama's /api/generate.
type OllamaBackend struct {
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaBackend creates a local backend. maxTokens <= 0 leaves the model default.
func NewOllamaBackend(model, baseURL string, maxTokens int) *OllamaBackend {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaBackend{
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (b *OllamaBackend) Name() string { return "local" }

func (b *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	body := ollamaRequest{
		Model:   b.model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{NumPredict: b.maxTokens},
	}
	var out ollamaResponse
	if err := httpjson.Do(ctx, b.client, http.MethodPost, b.baseURL+"/api/generate", nil, body, &out); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.Response, nil
}
