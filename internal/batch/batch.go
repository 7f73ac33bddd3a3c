// Package batch asks many independent questions concurrently.
package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/lingobot/internal/pipeline"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

// Asker is satisfied by *pipeline.Pipeline.
type Asker interface {
	Ask(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

type Result struct {
	Row    int
	Answer string
	// Response is nil for rows restored from Done or rejected by the asker.
	Response *pipeline.Response
	// Err is the per-row error, e.g. pipeline.ErrEmptyQuery.
	Err error
	// Resumed marks rows whose answer came from Done.
	Resumed bool
}

type Options struct {
	Workers int
	// Done maps row indices to answers from an earlier, interrupted run.
	Done map[int]string
	// OnResult is called once per newly answered row, never concurrently.
	// A non-nil error stops the run.
	OnResult func(Result) error
}

// Run asks every request and returns one Result per row, in row order.
// Per-row failures are reported in Result.Err; Run itself fails only when
// ctx is cancelled or OnResult returns an error.
func Run(ctx context.Context, asker Asker, rows []pipeline.Request, opts Options) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Result, len(rows))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, req := range rows {
		if answer, ok := opts.Done[i]; ok {
			results[i] = Result{Row: i, Answer: answer, Resumed: true}
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := Result{Row: i}
			resp, err := asker.Ask(gctx, req)
			if err != nil {
				res.Err = err
			} else {
				res.Response = resp
				res.Answer = resp.Answer
			}

			mu.Lock()
			defer mu.Unlock()
			results[i] = res
			if opts.OnResult != nil {
				return opts.OnResult(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
