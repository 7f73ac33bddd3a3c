package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal"
	"github.com/valpere/lingobot/internal/chunker"
	"github.com/valpere/lingobot/internal/generator"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/logger"
	"github.com/valpere/lingobot/internal/pivot"
	"github.com/valpere/lingobot/internal/placeholder"
)

var ErrEmptyQuery = errors.New("query is empty")

// Auto asks the pipeline to detect the source language.
const Auto = "auto"

// LanguageDetector guesses the language of a question.
type LanguageDetector interface {
	DetectTag(text string) (lang.Tag, bool)
}

// Recorder keeps answered exchanges.
type Recorder interface {
	Record(ctx context.Context, ex internal.Exchange) error
}

type Config struct {
	Forward   pivot.Hop
	Backward  pivot.Hop
	Generator *generator.Adapter
	// Detector is consulted when the source language is empty or "auto".
	Detector LanguageDetector
	Recorder Recorder
	// ChunkSize limits each back-translation request in runes; 0 sends the
	// answer whole.
	ChunkSize      int
	DefaultBackend generator.Choice
	Logger         *zap.Logger
}

type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Backend    string `json:"backend"`
}

type Response struct {
	ID            string   `json:"id"`
	Answer        string   `json:"answer"`
	SourceLang    lang.Tag `json:"source_lang"`
	TargetLang    lang.Tag `json:"target_lang"`
	EnglishQuery  string   `json:"english_query"`
	EnglishAnswer string   `json:"english_answer"`
	Backend       string   `json:"backend"`

	QueryStatus      pivot.Status `json:"query_status"`
	AnswerStatus     pivot.Status `json:"answer_status"`
	GenerationFailed bool         `json:"generation_failed"`
	// Warnings explain every degraded step in plain words.
	Warnings []string `json:"warnings,omitempty"`
	// LatencyMs is the wall time of the whole Ask.
	LatencyMs int64 `json:"latency_ms"`
}

// Pipeline is safe for concurrent use; each Ask is independent.
type Pipeline struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.DefaultBackend == "" {
		cfg.DefaultBackend = generator.Local
	}
	if cfg.Generator == nil {
		cfg.Generator = generator.NewAdapter(generator.Config{Logger: cfg.Logger})
	}
	return &Pipeline{cfg: cfg, log: logger.OrNop(cfg.Logger)}
}

// Backends lists the generation backends requests may choose.
func (p *Pipeline) Backends() []generator.Choice {
	return p.cfg.Generator.Backends()
}

// Ask answers req. Only an empty question is an error; every other failure
// degrades the response and is reported in its Warnings.
func (p *Pipeline) Ask(ctx context.Context, req Request) (*Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	start := time.Now()

	resp := &Response{ID: uuid.NewString()}
	resp.SourceLang = p.sourceLang(text, req.SourceLang, resp)
	resp.TargetLang = resp.SourceLang
	if strings.TrimSpace(req.TargetLang) != "" {
		resp.TargetLang = p.normalize(req.TargetLang, "target", resp)
	}

	question := pivot.Translate(ctx, text, resp.SourceLang, lang.English, p.cfg.Forward, p.cfg.Backward)
	resp.EnglishQuery = question.Text
	resp.QueryStatus = question.Status
	if question.Degraded() {
		p.warn(resp, "question was not translated to English", question.Err)
	}

	ans := p.cfg.Generator.Generate(ctx, question.Text, p.choice(req.Backend))
	resp.Backend = ans.Backend
	resp.EnglishAnswer = ans.Text

	switch {
	case ans.Failed():
		resp.GenerationFailed = true
		resp.Answer = ans.Text
		resp.AnswerStatus = pivot.Identity
		if resp.TargetLang != lang.English {
			resp.AnswerStatus = pivot.Degraded
		}
		p.warn(resp, "answer generation failed, answer was not translated", ans.Err)
	default:
		back := p.Translate(ctx, ans.Text, lang.English, resp.TargetLang)
		resp.Answer = back.Text
		resp.AnswerStatus = back.Status
		if back.Degraded() {
			p.warn(resp, "answer was not translated to "+resp.TargetLang.Name(), back.Err)
		}
	}

	resp.LatencyMs = time.Since(start).Milliseconds()
	p.record(ctx, req, resp)
	return resp, nil
}

func (p *Pipeline) sourceLang(text, raw string, resp *Response) lang.Tag {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.EqualFold(raw, Auto) {
		return p.normalize(raw, "source", resp)
	}
	if p.cfg.Detector == nil {
		resp.Warnings = append(resp.Warnings, "no language detector configured, assuming English")
		return lang.English
	}
	tag, ok := p.cfg.Detector.DetectTag(text)
	if !ok {
		resp.Warnings = append(resp.Warnings, "could not detect the question language, assuming English")
		return lang.English
	}
	p.log.Debug("detected language", zap.String("lang", string(tag)))
	return tag
}

func (p *Pipeline) normalize(raw, role string, resp *Response) lang.Tag {
	if !lang.IsSupported(raw) {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("unsupported %s language %q, using %s", role, raw, lang.Default))
	}
	return lang.Normalize(raw)
}

func (p *Pipeline) choice(raw string) generator.Choice {
	if strings.TrimSpace(raw) == "" {
		return p.cfg.DefaultBackend
	}
	c, err := generator.ParseChoice(raw)
	if err != nil {
		// The adapter reports the unknown backend as a failed answer.
		return generator.Choice(raw)
	}
	return c
}

// Translate pivots text from src to tgt piece by piece, keeping code, tags
// and links out of the translation. If any piece degrades the whole input
// comes back with Status Degraded.
func (p *Pipeline) Translate(ctx context.Context, text string, src, tgt lang.Tag) pivot.Result {
	res := pivot.Result{Text: text, Source: src, Target: tgt, Status: pivot.Identity}
	if src == tgt {
		return res
	}

	protected, markers := placeholder.Protect(text)
	pieces := chunker.Split(protected, p.cfg.ChunkSize)
	var mids []string
	for i, piece := range pieces {
		if onlyMarkers(piece.Text, markers) {
			continue
		}
		hop := pivot.Translate(ctx, piece.Text, src, tgt, p.cfg.Forward, p.cfg.Backward)
		res.Hops += hop.Hops
		if hop.Degraded() {
			res.Status = pivot.Degraded
			res.Err = hop.Err
			return res
		}
		if hop.Intermediate != "" {
			mids = append(mids, hop.Intermediate)
		}
		pieces[i].Text = hop.Text
	}

	joined := chunker.Join(pieces)
	if missing := markers.Missing(joined); len(missing) > 0 {
		p.log.Warn("translation dropped protected spans", zap.Ints("markers", missing))
	}
	res.Text = markers.Recover(joined)
	res.Intermediate = markers.Restore(strings.Join(mids, " "))
	res.Status = pivot.Translated
	return res
}

func onlyMarkers(text string, markers placeholder.Markers) bool {
	if len(markers) == 0 {
		return false
	}
	for i := range markers {
		text = strings.ReplaceAll(text, placeholder.Marker(i), "")
	}
	return strings.TrimSpace(text) == ""
}

func (p *Pipeline) warn(resp *Response, msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	resp.Warnings = append(resp.Warnings, msg)
	p.log.Warn(msg, zap.String("id", resp.ID),
		zap.String("src", string(resp.SourceLang)), zap.String("tgt", string(resp.TargetLang)))
}

func (p *Pipeline) record(ctx context.Context, req Request, resp *Response) {
	if p.cfg.Recorder == nil {
		return
	}
	err := p.cfg.Recorder.Record(ctx, internal.Exchange{
		ID:               resp.ID,
		Query:            req.Text,
		SourceLang:       string(resp.SourceLang),
		TargetLang:       string(resp.TargetLang),
		EnglishQuery:     resp.EnglishQuery,
		EnglishAnswer:    resp.EnglishAnswer,
		Answer:           resp.Answer,
		Backend:          resp.Backend,
		QueryStatus:      resp.QueryStatus.String(),
		AnswerStatus:     resp.AnswerStatus.String(),
		GenerationFailed: resp.GenerationFailed,
		Latency:          time.Duration(resp.LatencyMs) * time.Millisecond,
	})
	if err != nil {
		p.log.Warn("failed to record exchange", zap.String("id", resp.ID), zap.Error(err))
	}
}
