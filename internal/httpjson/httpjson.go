// Package httpjson sends JSON requests to the model and translation APIs.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout suits the hosted translation APIs. Model backends use longer.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed reply is kept.
const maxErrorBody = 512

// StatusError is a non-200 reply. Body holds the start of the reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("API returned status %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("API returned status %d", e.Code)
}

// Message pulls the server's explanation out of Body. It understands
// {"error":"..."} as sent by Ollama, {"error":{"message":"..."}} as sent by
// OpenAI-compatible APIs, and {"message":"..."}; anything else is returned
// as is.
func (e *StatusError) Message() string {
	var reply struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Body), &reply); err != nil {
		return e.Body
	}

	var flat string
	if json.Unmarshal(reply.Error, &flat) == nil && flat != "" {
		return flat
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(reply.Error, &nested) == nil && nested.Message != "" {
		return nested.Message
	}
	if reply.Message != "" {
		return reply.Message
	}
	return e.Body
}

// Do sends a request with an optional JSON body and decodes a JSON reply
// into out, which may be nil. Non-200 replies become *StatusError.
func Do(ctx context.Context, client *http.Client, method, url string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
