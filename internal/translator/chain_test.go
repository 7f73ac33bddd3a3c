package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lingobot/internal/lang"
)

type fakeService struct {
	name  string
	langs []lang.Tag
	ready error
	calls int
	last  Request
	fn    func(calls int, req Request) (*Result, error)
}

func (f *fakeService) Name() string                { return f.name }
func (f *fakeService) Ready(context.Context) error { return f.ready }
func (f *fakeService) Languages() []lang.Tag       { return f.langs }

func (f *fakeService) Translate(ctx context.Context, req Request) (*Result, error) {
	f.calls++
	f.last = req
	if err := ctx.Err(); err != nil {
		return &Result{Service: f.name, Error: err.Error()}, err
	}
	return f.fn(f.calls, req)
}

func answering(name, text string) *fakeService {
	return &fakeService{name: name, fn: func(int, Request) (*Result, error) {
		return &Result{Service: name, Text: text}, nil
	}}
}

func broken(name string) *fakeService {
	return &fakeService{name: name, fn: func(int, Request) (*Result, error) {
		return &Result{Service: name, Error: "down"}, errors.New("down")
	}}
}

type fixedChecker struct{ err error }

func (c fixedChecker) Check(string, lang.Tag) error { return c.err }

type glossaryMap map[string]string

func (g glossaryMap) GlossaryTerms(context.Context, lang.Tag, lang.Tag) (map[string]string, error) {
	return g, nil
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := answering("first", "Bonjour")
	second := answering("second", "Salut")
	c := NewChain(ChainConfig{Style: "Be brief."}, first, second)

	out, err := c.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
	assert.Equal(t, Request{Text: "Hello", Source: "en", Target: "fr", Style: "Be brief."}, first.last)
}

func TestChain_FallsBackInOrder(t *testing.T) {
	first := broken("first")
	second := answering("second", "  Salut  ")
	c := NewChain(ChainConfig{}, first, second)

	out, err := c.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Salut", out)
	assert.Equal(t, []string{"first", "second"}, c.Names())
}

func TestChain_AllFail(t *testing.T) {
	c := NewChain(ChainConfig{}, broken("a"), broken("b"))

	_, err := c.Translate(context.Background(), "Hello", "en", "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: down")
	assert.Contains(t, err.Error(), "b: down")
}

func TestChain_NoServices(t *testing.T) {
	_, err := NewChain(ChainConfig{}).Translate(context.Background(), "Hello", "en", "fr")
	assert.ErrorIs(t, err, ErrNoServices)
}

func TestChain_SkipsUnsupportedPairs(t *testing.T) {
	narrow := answering("narrow", "wrong")
	narrow.langs = []lang.Tag{"en", "fr"}
	wide := answering("wide", "வணக்கம்")
	c := NewChain(ChainConfig{}, narrow, wide)

	out, err := c.Translate(context.Background(), "Hello", "en", "ta")
	require.NoError(t, err)
	assert.Equal(t, "வணக்கம்", out)
	assert.Zero(t, narrow.calls)

	_, err = NewChain(ChainConfig{}, narrow).Translate(context.Background(), "Hello", "en", "ta")
	assert.ErrorIs(t, err, ErrNoneSupports)
}

func TestChain_BlankResultIsRejected(t *testing.T) {
	c := NewChain(ChainConfig{}, answering("blank", "   "), answering("ok", "Bonjour"))

	out, err := c.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
}

func TestChain_RetriesBeforeFallback(t *testing.T) {
	flaky := &fakeService{name: "flaky", fn: func(calls int, _ Request) (*Result, error) {
		if calls < 2 {
			return &Result{Error: "busy"}, errors.New("busy")
		}
		return &Result{Text: "Bonjour"}, nil
	}}
	c := NewChain(ChainConfig{MaxAttempts: 2, RetryDelay: time.Millisecond}, flaky)

	out, err := c.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, 2, flaky.calls)
}

func TestChain_ValidatorRejects(t *testing.T) {
	wrong := errors.New("wrong language")
	c := NewChain(ChainConfig{Validator: fixedChecker{err: wrong}}, answering("svc", "Hello again"))

	_, err := c.Translate(context.Background(), "Hello", "en", "fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, wrong)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestChain_Timeout(t *testing.T) {
	blocking := &blockingService{fakeService: &fakeService{name: "slow"}}
	c := NewChain(ChainConfig{Timeout: 10 * time.Millisecond}, blocking)

	_, err := c.Translate(context.Background(), "Hello", "en", "fr")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingService struct{ *fakeService }

func (b *blockingService) Translate(ctx context.Context, _ Request) (*Result, error) {
	<-ctx.Done()
	return &Result{Error: ctx.Err().Error()}, ctx.Err()
}

func TestChain_GlossaryTermsFilteredToText(t *testing.T) {
	svc := answering("svc", "Quel cours ?")
	c := NewChain(ChainConfig{Glossary: glossaryMap{"Course": "cours", "resume": "CV"}}, svc)

	_, err := c.Translate(context.Background(), "Which course?", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Course": "cours"}, svc.last.Glossary)
}

func TestChain_Ready(t *testing.T) {
	missing := answering("keyless", "")
	missing.ready = ErrMissingKey
	c := NewChain(ChainConfig{}, answering("ok", ""), missing)

	got := c.Ready(context.Background())
	assert.NoError(t, got["ok"])
	assert.ErrorIs(t, got["keyless"], ErrMissingKey)
}

func TestChain_Hop(t *testing.T) {
	c := NewChain(ChainConfig{}, answering("svc", "Hello"))

	out, err := c.Hop()(context.Background(), "Bonjour", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestSupports(t *testing.T) {
	svc := NewSystran("key")

	assert.True(t, Supports(svc, "en", "fr"))
	assert.False(t, Supports(svc, "en", "ta"))
	assert.True(t, Supports(NewMyMemory(""), "en", "ta"))
}

func TestLimit(t *testing.T) {
	svc := answering("svc", "Bonjour")
	assert.Same(t, svc, Limit(svc, 0, 1).(*fakeService), "zero rate leaves the service alone")

	throttled := Limit(svc, 1, 1)
	assert.Equal(t, "svc", throttled.Name())

	_, err := throttled.Translate(context.Background(), Request{Text: "Hello"})
	require.NoError(t, err, "the first call uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = throttled.Translate(ctx, Request{Text: "Hello"})
	assert.Error(t, err, "a second call within the second must wait past the deadline")
	assert.Equal(t, 1, svc.calls)
}
