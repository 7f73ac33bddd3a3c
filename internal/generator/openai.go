package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/lingobot/internal/httpjson"
)

// OpenAIBackend talks to any OpenAI-compatible /chat/completions endpoint,
// including OpenRouter.
type OpenAIBackend struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIBackend(apiKey, baseURL, model string, maxTokens int) *OpenAIBackend {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIBackend{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (b *OpenAIBackend) Name() string { return "hosted" }

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.apiKey == "" {
		return "", errors.New("API key not configured")
	}

	body := chatRequest{
		Model:     b.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: b.maxTokens,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+b.apiKey)

	var out chatResponse
	if err := httpjson.Do(ctx, b.client, http.MethodPost, b.baseURL+"/chat/completions", header, body, &out); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	return out.Choices[0].Message.Content, nil
}
