package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name   string
	out    string
	err    error
	prompt string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

type slowBackend struct{}

func (slowBackend) Name() string { return "local" }

func (slowBackend) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "too late", nil
	}
}

type panickyBackend struct{}

func (panickyBackend) Name() string { return "local" }

func (panickyBackend) Generate(context.Context, string) (string, error) { panic("out of memory") }

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in   string
		want Choice
	}{
		{"local", Local},
		{" Local ", Local},
		{"gpt2", Local},
		{"hosted", Hosted},
		{"OpenAI", Hosted},
	}
	for _, tt := range tests {
		got, err := ParseChoice(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseChoice("cloud9")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestGenerate_FramesPrompt(t *testing.T) {
	b := &fakeBackend{name: "hosted", out: "Start with a beginner course."}
	a := NewAdapter(Config{})
	a.Register(Hosted, b)

	ans := a.Generate(context.Background(), "How do I start?", Hosted)

	require.False(t, ans.Failed())
	assert.Equal(t, "Start with a beginner course.", ans.Text)
	assert.Equal(t, "hosted", ans.Backend)
	assert.Equal(t, "Answer the following question about online courses and career development: How do I start?", b.prompt)
	assert.Equal(t, b.prompt, ans.Prompt)
}

func TestGenerate_CustomInstruction(t *testing.T) {
	b := &fakeBackend{name: "local", out: "ok"}
	a := NewAdapter(Config{Instruction: "Q: %s\nA:"})
	a.Register(Local, b)

	a.Generate(context.Background(), "why?", Local)
	assert.Equal(t, "Q: why?\nA:", b.prompt)
}

func TestGenerate_InstructionWithoutVerbFallsBack(t *testing.T) {
	a := NewAdapter(Config{Instruction: "no verb"})
	assert.Equal(t, "Answer the following question about online courses and career development: x", a.Prompt("x"))
}

func TestGenerate_StripsEchoedPrompt(t *testing.T) {
	a := NewAdapter(Config{Instruction: "Answer: %s"})
	prompt := "Answer: What is Python?"
	a.Register(Local, &fakeBackend{name: "local", out: prompt + " Python is a programming language."})

	ans := a.Generate(context.Background(), "What is Python?", Local)
	assert.Equal(t, "Python is a programming language.", ans.Text)
}

func TestGenerate_BackendError(t *testing.T) {
	a := NewAdapter(Config{})
	a.Register(Hosted, &fakeBackend{name: "hosted", err: errors.New("rate limited")})

	ans := a.Generate(context.Background(), "Hello", Hosted)

	assert.True(t, ans.Failed())
	assert.Equal(t, "[hosted error: rate limited]", ans.Text)
}

func TestGenerate_EmptyAnswer(t *testing.T) {
	a := NewAdapter(Config{})
	a.Register(Local, &fakeBackend{name: "local", out: "   "})

	ans := a.Generate(context.Background(), "Hello", Local)

	assert.ErrorIs(t, ans.Err, ErrEmptyAnswer)
	assert.Contains(t, ans.Text, "[local error:")
}

func TestGenerate_UnknownBackend(t *testing.T) {
	a := NewAdapter(Config{})

	ans := a.Generate(context.Background(), "Hello", Hosted)

	assert.ErrorIs(t, ans.Err, ErrUnknownBackend)
	assert.Contains(t, ans.Text, "[hosted error:")
}

func TestGenerate_Panic(t *testing.T) {
	a := NewAdapter(Config{})
	a.Register(Local, panickyBackend{})

	var ans Answer
	require.NotPanics(t, func() { ans = a.Generate(context.Background(), "Hello", Local) })
	assert.True(t, ans.Failed())
	assert.Equal(t, "[local error: backend panicked: out of memory]", ans.Text)
}

func TestGenerate_Timeout(t *testing.T) {
	a := NewAdapter(Config{Timeout: 20 * time.Millisecond})
	a.Register(Local, slowBackend{})

	ans := a.Generate(context.Background(), "Hello", Local)

	assert.ErrorIs(t, ans.Err, context.DeadlineExceeded)
	assert.Contains(t, ans.Text, "[local error:")
}

func TestBackends(t *testing.T) {
	a := NewAdapter(Config{})
	assert.Empty(t, a.Backends())

	a.Register(Hosted, &fakeBackend{name: "hosted"})
	a.Register(Local, &fakeBackend{name: "local"})
	assert.Equal(t, []Choice{Local, Hosted}, a.Backends())
}
