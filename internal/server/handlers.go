package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal"
	"github.com/valpere/lingobot/internal/generator"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/markdown"
	"github.com/valpere/lingobot/internal/pipeline"
	"github.com/valpere/lingobot/internal/pivot"
	"github.com/valpere/lingobot/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no route for %s", r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method %s not allowed on %s", r.Method, r.URL.Path)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askResponse struct {
	*pipeline.Response
	AnswerHTML string `json:"answer_html"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not configured")
		return
	}
	var req pipeline.Request
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.cfg.Pipeline.Ask(r.Context(), req)
	if errors.Is(err, pipeline.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if err != nil {
		s.log.Error("ask failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ask failed")
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Response: resp, AnswerHTML: markdown.ToHTML(resp.Answer)})
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	Text         string       `json:"text"`
	SourceLang   lang.Tag     `json:"source_lang"`
	TargetLang   lang.Tag     `json:"target_lang"`
	Status       pivot.Status `json:"status"`
	Intermediate string       `json:"intermediate,omitempty"`
	Warning      string       `json:"warning,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Translator == nil {
		writeError(w, http.StatusServiceUnavailable, "translator not configured")
		return
	}
	var req translateRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is empty")
		return
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		writeError(w, http.StatusBadRequest, "target_lang is required")
		return
	}

	src := lang.Normalize(req.SourceLang)
	if raw := strings.TrimSpace(req.SourceLang); (raw == "" || strings.EqualFold(raw, pipeline.Auto)) && s.cfg.Detector != nil {
		if tag, ok := s.cfg.Detector.DetectTag(req.Text); ok {
			src = tag
		}
	}

	res := s.cfg.Translator.Translate(r.Context(), req.Text, src, lang.Normalize(req.TargetLang))
	out := translateResponse{
		Text:         res.Text,
		SourceLang:   res.Source,
		TargetLang:   res.Target,
		Status:       res.Status,
		Intermediate: res.Intermediate,
	}
	if res.Err != nil {
		out.Warning = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

type languagesResponse struct {
	Languages []lang.Info        `json:"languages"`
	Backends  []generator.Choice `json:"backends"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	backends := s.cfg.Backends
	if backends == nil {
		backends = []generator.Choice{}
	}
	writeJSON(w, http.StatusOK, languagesResponse{Languages: lang.Supported(), Backends: backends})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	exchanges, err := s.cfg.History.ListExchanges(r.Context(), limit, offset)
	if err != nil {
		s.log.Error("list history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if exchanges == nil {
		exchanges = []internal.Exchange{}
	}
	writeJSON(w, http.StatusOK, exchanges)
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	id := mux.Vars(r)["id"]
	ex, err := s.cfg.History.GetExchange(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "exchange %s not found", id)
		return
	}
	if err != nil {
		s.log.Error("get exchange failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load exchange")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
