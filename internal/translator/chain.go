package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/logger"
	"github.com/valpere/lingobot/internal/pivot"
)

var (
	ErrNoServices   = errors.New("no translation services configured")
	ErrNoneSupports = errors.New("no configured service supports the language pair")
)

// LanguageChecker verifies that a translation is in the requested language.
type LanguageChecker interface {
	Check(text string, target lang.Tag) error
}

// GlossarySource supplies pinned term translations for a language pair.
type GlossarySource interface {
	GlossaryTerms(ctx context.Context, src, tgt lang.Tag) (map[string]string, error)
}

type ChainConfig struct {
	// MaxAttempts per service before moving on to the next one.
	MaxAttempts int
	RetryDelay  time.Duration
	// Timeout bounds a single attempt.
	Timeout   time.Duration
	Validator LanguageChecker
	Glossary  GlossarySource
	Style     string
	Logger    *zap.Logger
}

// Chain tries its services in order and returns the first acceptable
// translation. An answer is acceptable when it is non-blank and, with a
// Validator configured, in the target language. Services that do not list
// both languages are skipped.
type Chain struct {
	services []Service
	cfg      ChainConfig
	log      *zap.Logger
}

func NewChain(cfg ChainConfig, services ...Service) *Chain {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Chain{
		services: services,
		cfg:      cfg,
		log:      logger.OrNop(cfg.Logger),
	}
}

// Names lists the services in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, len(c.services))
	for i, s := range c.services {
		names[i] = s.Name()
	}
	return names
}

// Ready asks every service whether it is usable. The map holds nil for
// ready services.
func (c *Chain) Ready(ctx context.Context) map[string]error {
	out := make(map[string]error, len(c.services))
	for _, s := range c.services {
		out[s.Name()] = s.Ready(ctx)
	}
	return out
}

// Hop adapts the chain to the pivot translator.
func (c *Chain) Hop() pivot.Hop {
	return c.Translate
}

func (c *Chain) Translate(ctx context.Context, text string, src, tgt lang.Tag) (string, error) {
	if len(c.services) == 0 {
		return "", ErrNoServices
	}

	req := Request{Text: text, Source: src, Target: tgt, Style: c.cfg.Style}
	if c.cfg.Glossary != nil {
		terms, err := c.cfg.Glossary.GlossaryTerms(ctx, src, tgt)
		if err != nil {
			c.log.Warn("glossary lookup failed", zap.Stringer("src", src), zap.Stringer("tgt", tgt), zap.Error(err))
		}
		req.Glossary = matchingTerms(text, terms)
	}

	var errs []error
	for _, svc := range c.services {
		if !Supports(svc, src, tgt) {
			c.log.Debug("service skipped", zap.String("service", svc.Name()), zap.Stringer("src", src), zap.Stringer("tgt", tgt))
			continue
		}

		hop := pivot.Retry(pivot.Timeout(c.attempt(svc, req), c.cfg.Timeout), c.cfg.MaxAttempts, c.cfg.RetryDelay)
		out, err := hop(ctx, text, src, tgt)
		if err == nil {
			return out, nil
		}

		c.log.Warn("translation service failed",
			zap.String("service", svc.Name()),
			zap.Stringer("src", src),
			zap.Stringer("tgt", tgt),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", svc.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s→%s", ErrNoneSupports, src, tgt)
	}
	return "", fmt.Errorf("all translation services failed: %w", errors.Join(errs...))
}

func (c *Chain) attempt(svc Service, req Request) pivot.Hop {
	return func(ctx context.Context, _ string, _, tgt lang.Tag) (string, error) {
		res, err := svc.Translate(ctx, req)
		if err != nil {
			return "", err
		}

		out := strings.TrimSpace(res.Text)
		if out == "" {
			return "", pivot.ErrEmptyTranslation
		}
		if c.cfg.Validator != nil {
			if err := c.cfg.Validator.Check(out, tgt); err != nil {
				return "", fmt.Errorf("validation failed: %w", err)
			}
		}

		c.log.Debug("translated",
			zap.String("service", res.Service),
			zap.String("model", res.Model),
			zap.Duration("latency", res.Latency),
		)
		return out, nil
	}
}

// matchingTerms keeps only the glossary entries that occur in text.
func matchingTerms(text string, terms map[string]string) map[string]string {
	if len(terms) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	out := make(map[string]string)
	for src, tgt := range terms {
		if strings.Contains(lower, strings.ToLower(src)) {
			out[src] = tgt
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
