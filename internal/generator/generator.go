// Package generator produces English answers to English questions through a
// pluggable text-generation backend.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal/logger"
	"github.com/valpere/lingobot/internal/postprocess"
)

var (
	ErrUnknownBackend = errors.New("unknown generation backend")
	ErrEmptyAnswer    = errors.New("backend returned an empty answer")
)

// DefaultInstruction frames the question; %s is replaced by it.
const DefaultInstruction = "Answer the following question about online courses and career development: %s"

// Backend turns a prompt into generated text.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Choice selects a registered backend.
type Choice string

const (
	Local  Choice = "local"
	Hosted Choice = "hosted"
)

// ParseChoice accepts "local"/"hosted" and a few aliases, case-insensitively.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "ollama", "gpt2", "gpt-2":
		return Local, nil
	case "hosted", "openai", "chat", "api", "openrouter":
		return Hosted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Answer is the outcome of one generation. On failure Text holds an
// English error string of the form "[<backend> error: <reason>]".
type Answer struct {
	Text    string `json:"text"`
	Backend string `json:"backend"`
	Prompt  string `json:"prompt"`
	Err     error  `json:"-"`
}

func (a Answer) Failed() bool { return a.Err != nil }

type Config struct {
	// Instruction must contain exactly one %s. Empty means DefaultInstruction.
	Instruction string
	// Timeout bounds one backend call; 0 leaves it to the caller's context.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Adapter routes prompts to registered backends.
type Adapter struct {
	instruction string
	timeout     time.Duration
	log         *zap.Logger

	mu       sync.RWMutex
	backends map[Choice]Backend
}

func NewAdapter(cfg Config) *Adapter {
	instruction := cfg.Instruction
	if instruction == "" || !strings.Contains(instruction, "%s") {
		instruction = DefaultInstruction
	}
	return &Adapter{
		instruction: instruction,
		timeout:     cfg.Timeout,
		log:         logger.OrNop(cfg.Logger),
		backends:    make(map[Choice]Backend),
	}
}

// Register installs b for choice, replacing any previous backend.
func (a *Adapter) Register(choice Choice, b Backend) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backends[choice] = b
}

// Backends lists the registered choices.
func (a *Adapter) Backends() []Choice {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Choice, 0, len(a.backends))
	for _, c := range []Choice{Local, Hosted} {
		if _, ok := a.backends[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Prompt frames question with the configured instruction.
func (a *Adapter) Prompt(question string) string {
	return fmt.Sprintf(a.instruction, question)
}

// Generate answers the English question with the chosen backend. It never
// returns an error or panics; failures come back as an error-tagged Answer.
func (a *Adapter) Generate(ctx context.Context, question string, choice Choice) (ans Answer) {
	ans = Answer{Backend: string(choice), Prompt: a.Prompt(question)}

	a.mu.RLock()
	b, ok := a.backends[choice]
	a.mu.RUnlock()
	if !ok || b == nil {
		return a.fail(ans, fmt.Errorf("%w: %q", ErrUnknownBackend, choice))
	}
	ans.Backend = b.Name()

	defer func() {
		if r := recover(); r != nil {
			ans = a.fail(ans, fmt.Errorf("backend panicked: %v", r))
		}
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := b.Generate(ctx, ans.Prompt)
	if err != nil {
		return a.fail(ans, err)
	}
	text := postprocess.Answer(ans.Prompt, raw)
	if text == "" {
		return a.fail(ans, ErrEmptyAnswer)
	}
	ans.Text = text
	return ans
}

func (a *Adapter) fail(ans Answer, err error) Answer {
	a.log.Warn("generation failed", zap.String("backend", ans.Backend), zap.Error(err))
	ans.Err = err
	ans.Text = fmt.Sprintf("[%s error: %v]", ans.Backend, err)
	return ans
}
