package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lingobot/internal/pipeline"
)

type upperAsker struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (a *upperAsker) Ask(ctx context.Context, req pipeline.Request) (*pipeline.Response, error) {
	a.calls.Add(1)
	n := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		p := a.peak.Load()
		if n <= p || a.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, pipeline.ErrEmptyQuery
	}
	return &pipeline.Response{Answer: strings.ToUpper(req.Text)}, nil
}

func requests(texts ...string) []pipeline.Request {
	out := make([]pipeline.Request, len(texts))
	for i, t := range texts {
		out[i] = pipeline.Request{Text: t}
	}
	return out
}

func TestRun_PreservesRowOrder(t *testing.T) {
	asker := &upperAsker{delay: time.Millisecond}
	results, err := Run(context.Background(), asker, requests("a", "b", "c", "d", "e"), Options{Workers: 3})
	require.NoError(t, err)

	require.Len(t, results, 5)
	for i, want := range []string{"A", "B", "C", "D", "E"} {
		assert.Equal(t, i, results[i].Row)
		assert.Equal(t, want, results[i].Answer)
		assert.NotNil(t, results[i].Response)
	}
}

func TestRun_RespectsWorkerLimit(t *testing.T) {
	asker := &upperAsker{delay: 10 * time.Millisecond}
	_, err := Run(context.Background(), asker, requests("a", "b", "c", "d", "e", "f", "g", "h"), Options{Workers: 2})
	require.NoError(t, err)

	assert.LessOrEqual(t, asker.peak.Load(), int32(2))
	assert.Equal(t, int32(8), asker.calls.Load())
}

func TestRun_SkipsDoneRows(t *testing.T) {
	asker := &upperAsker{}
	var seen []int
	var mu sync.Mutex

	results, err := Run(context.Background(), asker, requests("a", "b", "c"), Options{
		Done: map[int]string{1: "cached"},
		OnResult: func(r Result) error {
			mu.Lock()
			seen = append(seen, r.Row)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), asker.calls.Load())
	assert.Equal(t, "cached", results[1].Answer)
	assert.True(t, results[1].Resumed)
	assert.ElementsMatch(t, []int{0, 2}, seen)
}

func TestRun_RowErrorsAreNotFatal(t *testing.T) {
	results, err := Run(context.Background(), &upperAsker{}, requests("a", " ", "c"), Options{})
	require.NoError(t, err)

	assert.ErrorIs(t, results[1].Err, pipeline.ErrEmptyQuery)
	assert.Equal(t, "C", results[2].Answer)
}

func TestRun_OnResultErrorStops(t *testing.T) {
	stop := errors.New("disk full")
	_, err := Run(context.Background(), &upperAsker{}, requests("a", "b", "c"), Options{
		Workers:  1,
		OnResult: func(Result) error { return stop },
	})
	assert.ErrorIs(t, err, stop)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	asker := &upperAsker{}
	_, err := Run(ctx, asker, requests("a", "b"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, asker.calls.Load())
}
