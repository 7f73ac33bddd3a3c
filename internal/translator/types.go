// Package translator holds the machine-translation services lingobot pivots
// through and the fallback chain that turns a list of them into a hop.
package translator

import (
	"context"
	"slices"
	"time"

	"github.com/valpere/lingobot/internal/lang"
)

// Request is a single hop handed to one service.
type Request struct {
	Text   string
	Source lang.Tag
	Target lang.Tag
	// Glossary pins source terms to fixed translations. Only the LLM-backed
	// services can honour it.
	Glossary map[string]string
	// Style is appended to LLM prompts, e.g. "Use a formal register."
	Style string
}

// Result is what a service produced. Error mirrors the returned error so a
// result can be logged or shown on its own.
type Result struct {
	Service string        `json:"service"`
	Text    string        `json:"text"`
	Model   string        `json:"model,omitempty"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
	// Ready reports whether the service is configured well enough to try.
	Ready(ctx context.Context) error
	// Languages lists the tags the service handles. Nil means all of them.
	Languages() []lang.Tag
}

// Supports reports whether svc can translate between src and tgt.
func Supports(svc Service, src, tgt lang.Tag) bool {
	langs := svc.Languages()
	if langs == nil {
		return true
	}
	return slices.Contains(langs, src) && slices.Contains(langs, tgt)
}

// except returns every supported tag apart from the ones listed.
func except(skip ...lang.Tag) []lang.Tag {
	var out []lang.Tag
	for _, info := range lang.Supported() {
		if !slices.Contains(skip, info.Tag) {
			out = append(out, info.Tag)
		}
	}
	return out
}

func start(service string) (*Result, time.Time) {
	return &Result{Service: service}, time.Now()
}

// fail records err on r and returns both, for one-line error exits.
func (r *Result) fail(began time.Time, err error) (*Result, error) {
	r.Latency = time.Since(began)
	r.Error = err.Error()
	return r, err
}

func (r *Result) done(began time.Time, text string) (*Result, error) {
	r.Latency = time.Since(began)
	r.Text = text
	return r, nil
}
