package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/lingobot/internal/httpjson"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/postprocess"
)

var DefaultOllamaModels = []string{"llama3.2", "gemma2:2b", "qwen2.5:3b"}

// Ollama translates with a local model through /api/generate, drawing a
// model from its pool on every call.
type Ollama struct {
	baseURL string
	models  models
	client  *http.Client
}

func NewOllama(baseURL string, pool []string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if len(pool) == 0 {
		pool = DefaultOllamaModels
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  pool,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *Ollama) Name() string { return "ollama" }

func (s *Ollama) Languages() []lang.Tag { return nil }

// Ready checks that the Ollama daemon answers.
func (s *Ollama) Ready(ctx context.Context) error {
	if err := httpjson.Do(ctx, s.client, http.MethodGet, s.baseURL+"/api/tags", nil, nil, nil); err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	return nil
}

func (s *Ollama) Translate(ctx context.Context, req Request) (*Result, error) {
	res, began := start(s.Name())
	res.Model = s.models.pick()

	body := map[string]any{
		"model":  res.Model,
		"system": systemPrompt(req),
		"prompt": "Text:\n" + req.Text + "\n\nTranslation:",
		"stream": false,
	}
	var reply struct {
		Response string `json:"response"`
	}
	if err := httpjson.Do(ctx, s.client, http.MethodPost, s.baseURL+"/api/generate", nil, body, &reply); err != nil {
		return res.fail(began, err)
	}

	out := postprocess.Clean(reply.Response)
	if out == "" {
		return res.fail(began, errors.New("empty response from model"))
	}
	return res.done(began, out)
}
