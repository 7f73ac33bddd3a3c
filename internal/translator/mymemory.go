package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/valpere/lingobot/internal/httpjson"
	"github.com/valpere/lingobot/internal/lang"
)

const myMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory uses the free MyMemory API. An email raises the daily quota.
type MyMemory struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemory(email string) *MyMemory {
	return &MyMemory{
		email:   email,
		baseURL: myMemoryURL,
		client:  &http.Client{Timeout: httpjson.DefaultTimeout},
	}
}

func (s *MyMemory) Name() string { return "mymemory" }

func (s *MyMemory) Ready(context.Context) error { return nil }

func (s *MyMemory) Languages() []lang.Tag { return nil }

func (s *MyMemory) Translate(ctx context.Context, req Request) (*Result, error) {
	res, began := start(s.Name())

	q := url.Values{}
	q.Set("q", req.Text)
	q.Set("langpair", fmt.Sprintf("%s|%s", req.Source, req.Target))
	if s.email != "" {
		q.Set("de", s.email)
	}

	// MyMemory reports quota and validation errors in the body with HTTP 200.
	var reply struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := httpjson.Do(ctx, s.client, http.MethodGet, s.baseURL+"?"+q.Encode(), nil, nil, &reply); err != nil {
		return res.fail(began, err)
	}
	if reply.ResponseStatus != http.StatusOK {
		return res.fail(began, &httpjson.StatusError{Code: reply.ResponseStatus, Body: reply.ResponseDetails})
	}

	return res.done(began, reply.ResponseData.TranslatedText)
}
