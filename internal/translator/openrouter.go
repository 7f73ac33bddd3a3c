package translator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/lingobot/internal/httpjson"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/postprocess"
)

const openRouterURL = "https://openrouter.ai/api/v1"

var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
}

// OpenRouter translates through OpenRouter's chat-completions endpoint.
// Glossary terms go into the system message.
type OpenRouter struct {
	apiKey  string
	baseURL string
	models  models
	client  *http.Client
}

func NewOpenRouter(apiKey, baseURL string, pool []string) *OpenRouter {
	if baseURL == "" {
		baseURL = openRouterURL
	}
	if len(pool) == 0 {
		pool = DefaultOpenRouterModels
	}
	return &OpenRouter{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  pool,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenRouter) Name() string { return "openrouter" }

func (s *OpenRouter) Languages() []lang.Tag { return nil }

func (s *OpenRouter) Ready(context.Context) error {
	if s.apiKey == "" {
		return ErrMissingKey
	}
	return nil
}

func (s *OpenRouter) Translate(ctx context.Context, req Request) (*Result, error) {
	res, began := start(s.Name())
	if err := s.Ready(ctx); err != nil {
		return res.fail(began, err)
	}
	res.Model = s.models.pick()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.apiKey)
	header.Set("HTTP-Referer", "https://github.com/valpere/lingobot")
	header.Set("X-Title", "lingobot")

	body := map[string]any{
		"model": res.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(req)},
			{"role": "user", "content": req.Text},
		},
		"max_tokens": 2048,
	}
	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := httpjson.Do(ctx, s.client, http.MethodPost, s.baseURL+"/chat/completions", header, body, &reply); err != nil {
		return res.fail(began, err)
	}
	if len(reply.Choices) == 0 {
		return res.fail(began, errors.New("empty response from API"))
	}

	return res.done(began, postprocess.Clean(reply.Choices[0].Message.Content))
}
