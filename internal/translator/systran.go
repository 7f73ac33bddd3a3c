package translator

import (
	"context"
	"errors"
	"net/http"

	"github.com/valpere/lingobot/internal/httpjson"
	"github.com/valpere/lingobot/internal/lang"
)

const (
	systranHost = "api-systran-systran-translation-v1.p.rapidapi.com"
	systranURL  = "https://" + systranHost + "/translation/text/translate"
)

var ErrMissingKey = errors.New("API key not configured")

// Systran calls the Systran translation API through RapidAPI.
type Systran struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystran(apiKey string) *Systran {
	return &Systran{
		apiKey:  apiKey,
		baseURL: systranURL,
		client:  &http.Client{Timeout: httpjson.DefaultTimeout},
	}
}

func (s *Systran) Name() string { return "systran" }

func (s *Systran) Ready(context.Context) error {
	if s.apiKey == "" {
		return ErrMissingKey
	}
	return nil
}

// Languages excludes the Dravidian and smaller Indic languages Systran has
// no models for.
func (s *Systran) Languages() []lang.Tag {
	return except("ta", "te", "mr", "gu", "kn", "ml", "pa")
}

func (s *Systran) Translate(ctx context.Context, req Request) (*Result, error) {
	res, began := start(s.Name())
	if err := s.Ready(ctx); err != nil {
		return res.fail(began, err)
	}

	header := http.Header{}
	header.Set("X-RapidAPI-Key", s.apiKey)
	header.Set("X-RapidAPI-Host", systranHost)

	body := map[string]any{
		"text":   []string{req.Text},
		"source": req.Source,
		"target": req.Target,
		"format": "text",
	}
	var reply struct {
		Outputs []struct {
			Output string `json:"output"`
		} `json:"outputs"`
	}
	if err := httpjson.Do(ctx, s.client, http.MethodPost, s.baseURL, header, body, &reply); err != nil {
		return res.fail(began, err)
	}
	if len(reply.Outputs) == 0 || reply.Outputs[0].Output == "" {
		return res.fail(began, errors.New("empty translation response"))
	}

	return res.done(began, reply.Outputs[0].Output)
}
