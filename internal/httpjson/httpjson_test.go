package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDo_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("  Forbidden\n"))
	}))
	defer server.Close()

	err := Do(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusForbidden || se.Body != "Forbidden" {
		t.Errorf("unexpected status error %+v", se)
	}
	if se.Error() != "API returned status 403: Forbidden" {
		t.Errorf("unexpected message %q", se.Error())
	}
}

func TestDo_TruncatesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 4*maxErrorBody)))
	}))
	defer server.Close()

	err := Do(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if len(se.Body) != maxErrorBody {
		t.Errorf("expected body capped at %d bytes, got %d", maxErrorBody, len(se.Body))
	}
}

func TestDo_SendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Error("expected custom header")
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("X-Test", "yes")
	var out struct {
		Echo string `json:"echo"`
	}
	err := Do(context.Background(), server.Client(), http.MethodPost, server.URL, header, map[string]string{"q": "hi"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Echo != "hi" {
		t.Errorf("expected echo, got %q", out.Echo)
	}
}

func TestDo_BadReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]any
	err := Do(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, &out)
	if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestStatusError_Message(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain text", "Forbidden", "Forbidden"},
		{"flat error", `{"error":"model \"gemma2:2b\" not found"}`, `model "gemma2:2b" not found`},
		{"nested error", `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "Incorrect API key provided"},
		{"message field", `{"message":"You are not subscribed to this API."}`, "You are not subscribed to this API."},
		{"unrecognised json", `{"detail":"nope"}`, `{"detail":"nope"}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := &StatusError{Code: http.StatusBadRequest, Body: tt.body}
			if got := se.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
