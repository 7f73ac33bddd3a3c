package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/lingobot/internal"
	"github.com/valpere/lingobot/internal/generator"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/pipeline"
	"github.com/valpere/lingobot/internal/pivot"
	"github.com/valpere/lingobot/internal/store"
)

type fakeAsker struct {
	got []pipeline.Request
}

func (a *fakeAsker) Ask(_ context.Context, req pipeline.Request) (*pipeline.Response, error) {
	a.got = append(a.got, req)
	if strings.TrimSpace(req.Text) == "" {
		return nil, pipeline.ErrEmptyQuery
	}
	return &pipeline.Response{
		ID:           "ex-1",
		Answer:       "Use **Go**.",
		SourceLang:   lang.Normalize(req.SourceLang),
		TargetLang:   lang.Normalize(req.SourceLang),
		Backend:      "local",
		QueryStatus:  pivot.Translated,
		AnswerStatus: pivot.Translated,
		LatencyMs:    42,
	}, nil
}

type fakeHistory struct {
	exchanges []internal.Exchange
}

func (h *fakeHistory) ListExchanges(_ context.Context, limit, offset int) ([]internal.Exchange, error) {
	if offset >= len(h.exchanges) {
		return nil, nil
	}
	end := min(offset+limit, len(h.exchanges))
	return h.exchanges[offset:end], nil
}

func (h *fakeHistory) GetExchange(_ context.Context, id string) (*internal.Exchange, error) {
	for _, ex := range h.exchanges {
		if ex.ID == id {
			return &ex, nil
		}
	}
	return nil, fmt.Errorf("exchange %s: %w", id, store.ErrNotFound)
}

func table(m map[string]string) pivot.Hop {
	return func(_ context.Context, text string, _, _ lang.Tag) (string, error) {
		if out, ok := m[text]; ok {
			return out, nil
		}
		return "", errors.New("no entry")
	}
}

// hopTranslator pivots whole texts through forward and backward.
type hopTranslator struct {
	forward, backward pivot.Hop
}

func (h hopTranslator) Translate(ctx context.Context, text string, src, tgt lang.Tag) pivot.Result {
	return pivot.Translate(ctx, text, src, tgt, h.forward, h.backward)
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAsk(t *testing.T) {
	asker := &fakeAsker{}
	ts := newTestServer(t, Config{Pipeline: asker})

	resp := postJSON(t, ts.URL+"/api/ask", `{"text":"Bonjour","source_lang":"fr","backend":"local"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["answer"] != "Use **Go**." {
		t.Errorf("unexpected answer: %v", body["answer"])
	}
	if html, _ := body["answer_html"].(string); !strings.Contains(html, "<strong>Go</strong>") {
		t.Errorf("expected rendered HTML, got %q", html)
	}
	if body["query_status"] != "translated" {
		t.Errorf("expected status as text, got %v", body["query_status"])
	}
	if body["latency_ms"] != float64(42) {
		t.Errorf("expected latency in milliseconds, got %v", body["latency_ms"])
	}
	if len(asker.got) != 1 || asker.got[0].SourceLang != "fr" || asker.got[0].Backend != "local" {
		t.Errorf("unexpected request forwarded: %+v", asker.got)
	}
}

func TestAsk_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty text", `{"text":"   "}`, http.StatusBadRequest},
		{"malformed json", `{"text":`, http.StatusBadRequest},
		{"unknown field", `{"question":"hi"}`, http.StatusBadRequest},
	}

	ts := newTestServer(t, Config{Pipeline: &fakeAsker{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/ask", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
				t.Errorf("expected JSON error body, got %+v (%v)", e, err)
			}
		})
	}
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Config{Pipeline: &fakeAsker{}})
	resp := get(t, ts.URL+"/api/ask")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestUnroutedRequests_AnswerJSON(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"get on post route", http.MethodGet, "/api/ask", http.StatusMethodNotAllowed},
		{"post on health", http.MethodPost, "/healthz", http.StatusMethodNotAllowed},
		{"delete on history", http.MethodDelete, "/api/history/a", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound},
		{"unknown api path", http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	ts := newTestServer(t, Config{Pipeline: &fakeAsker{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("build request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s failed: %v", tt.method, tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
				t.Errorf("expected JSON error body, got %+v (%v)", e, err)
			}
		})
	}
}

func TestAsk_NoPipeline(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp := postJSON(t, ts.URL+"/api/ask", `{"text":"hi"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestTranslate(t *testing.T) {
	ts := newTestServer(t, Config{Translator: hopTranslator{
		forward:  table(map[string]string{"Hola": "Hello"}),
		backward: table(map[string]string{"Hello": "Bonjour"}),
	}})

	resp := postJSON(t, ts.URL+"/api/translate", `{"text":"Hola","source_lang":"es","target_lang":"fr"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["text"] != "Bonjour" || body["intermediate"] != "Hello" || body["status"] != "translated" {
		t.Errorf("unexpected response: %v", body)
	}
	if _, ok := body["warning"]; ok {
		t.Errorf("expected no warning, got %v", body["warning"])
	}
}

func TestTranslate_DegradedCarriesWarning(t *testing.T) {
	ts := newTestServer(t, Config{Translator: hopTranslator{forward: table(nil)}})

	resp := postJSON(t, ts.URL+"/api/translate", `{"text":"Hola","source_lang":"es","target_lang":"en"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["text"] != "Hola" || body["status"] != "degraded" || body["warning"] == nil {
		t.Errorf("unexpected response: %v", body)
	}
}

func TestTranslate_Validation(t *testing.T) {
	ts := newTestServer(t, Config{Translator: hopTranslator{}})
	for _, body := range []string{`{"text":"","target_lang":"fr"}`, `{"text":"Hola"}`} {
		resp := postJSON(t, ts.URL+"/api/translate", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestLanguages(t *testing.T) {
	ts := newTestServer(t, Config{Backends: []generator.Choice{generator.Local, generator.Hosted}})

	resp := get(t, ts.URL+"/api/languages")
	var body languagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(body.Languages) != len(lang.Supported()) {
		t.Errorf("expected %d languages, got %d", len(lang.Supported()), len(body.Languages))
	}
	if len(body.Backends) != 2 {
		t.Errorf("expected 2 backends, got %v", body.Backends)
	}
}

func TestHistory(t *testing.T) {
	hist := &fakeHistory{exchanges: []internal.Exchange{
		{ID: "a", Query: "Hola", Answer: "Hola"},
		{ID: "b", Query: "Hallo", Answer: "Hallo"},
	}}
	ts := newTestServer(t, Config{History: hist})

	resp := get(t, ts.URL+"/api/history?limit=1&offset=1")
	var page []internal.Exchange
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("unexpected page: %+v", page)
	}

	resp = get(t, ts.URL+"/api/history?offset=10")
	var empty []internal.Exchange
	if err := json.NewDecoder(resp.Body).Decode(&empty); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected an empty JSON array, got %v", empty)
	}

	if resp := get(t, ts.URL+"/api/history?limit=-1"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for negative limit, got %d", resp.StatusCode)
	}

	if resp := get(t, ts.URL+"/api/history/a"); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp := get(t, ts.URL+"/api/history/zzz"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHistory_Disabled(t *testing.T) {
	ts := newTestServer(t, Config{})
	if resp := get(t, ts.URL+"/api/history"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(Config{}).ListenAndServe(ctx, ListenConfig{Addr: "127.0.0.1:0"})
	}()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
