package pivot

import (
	"context"
	"time"

	"github.com/valpere/lingobot/internal/lang"
)

// Timeout bounds every call of h by d. A non-positive d returns h unchanged.
func Timeout(h Hop, d time.Duration) Hop {
	if h == nil || d <= 0 {
		return h
	}
	return func(ctx context.Context, text string, src, tgt lang.Tag) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return h(ctx, text, src, tgt)
	}
}

// Retry makes up to attempts calls of h, sleeping delay between them. It
// stops early when ctx is done.
func Retry(h Hop, attempts int, delay time.Duration) Hop {
	if h == nil || attempts <= 1 {
		return h
	}
	return func(ctx context.Context, text string, src, tgt lang.Tag) (string, error) {
		var lastErr error
		for attempt := 1; attempt <= attempts; attempt++ {
			out, err := h(ctx, text, src, tgt)
			if err == nil {
				return out, nil
			}
			lastErr = err
			if attempt == attempts {
				break
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
		return "", lastErr
	}
}
