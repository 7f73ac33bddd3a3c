// Package pivot translates text between any two supported languages by
// routing through English.
//
// The translation primitives are pairwise: a forward hop turns a source
// language into English and a backward hop turns English into a target
// language. Translate picks the hops a language pair needs and never lets a
// hop failure escape. When a hop fails the caller gets the input text back,
// tagged as degraded, together with the reason.
package pivot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/lingobot/internal/lang"
)

// Hop is a single pairwise translation primitive.
type Hop func(ctx context.Context, text string, src, tgt lang.Tag) (string, error)

var (
	ErrEmptyTranslation = errors.New("hop returned empty text")
	ErrNoHop            = errors.New("no translation hop configured")
)

// Direction names the hop that was being executed.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// HopError records which hop failed and why.
type HopError struct {
	Direction Direction
	Source    lang.Tag
	Target    lang.Tag
	Err       error
}

func (e *HopError) Error() string {
	return fmt.Sprintf("%s hop %s→%s failed: %v", e.Direction, e.Source, e.Target, e.Err)
}

func (e *HopError) Unwrap() error { return e.Err }

// Status tells a caller whether the text it got back is a real translation.
type Status int

const (
	// Identity means source and target were the same; no hop ran.
	Identity Status = iota
	// Translated means every required hop succeeded.
	Translated
	// Degraded means a hop failed and Text is the untranslated input.
	Degraded
)

func (s Status) String() string {
	switch s {
	case Identity:
		return "identity"
	case Translated:
		return "translated"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Result is the outcome of Translate.
type Result struct {
	Text   string
	Source lang.Tag
	Target lang.Tag
	Status Status
	// Intermediate holds the English text produced by the forward hop of a
	// two-hop translation, even when the backward hop then failed.
	Intermediate string
	// Hops counts primitive calls made.
	Hops int
	// Err is a *HopError when Status is Degraded.
	Err error
}

func (r Result) Degraded() bool { return r.Status == Degraded }

// Translate converts text from src to tgt.
//
//   - src == tgt: text is returned unchanged and no hop runs.
//   - src == en: backward(text, en, tgt).
//   - tgt == en: forward(text, src, en).
//   - otherwise: forward(text, src, en) and then backward(mid, en, tgt).
//
// Any hop failure, including a blank result or a panic, yields the original
// text with Status Degraded.
func Translate(ctx context.Context, text string, src, tgt lang.Tag, forward, backward Hop) Result {
	res := Result{Text: text, Source: src, Target: tgt}

	if src == tgt {
		res.Status = Identity
		return res
	}

	mid := text
	if src != lang.English {
		out, err := call(ctx, forward, text, src, lang.English)
		res.Hops++
		if err != nil {
			return degrade(res, text, &HopError{Direction: Forward, Source: src, Target: lang.English, Err: err})
		}
		if tgt == lang.English {
			res.Text = out
			res.Status = Translated
			return res
		}
		mid = out
		res.Intermediate = out
	}

	out, err := call(ctx, backward, mid, lang.English, tgt)
	res.Hops++
	if err != nil {
		return degrade(res, text, &HopError{Direction: Backward, Source: lang.English, Target: tgt, Err: err})
	}
	res.Text = out
	res.Status = Translated
	return res
}

func degrade(res Result, original string, err error) Result {
	res.Text = original
	res.Status = Degraded
	res.Err = err
	return res
}

// call runs h and turns blank output and panics into errors.
func call(ctx context.Context, h Hop, text string, src, tgt lang.Tag) (out string, err error) {
	if h == nil {
		return "", ErrNoHop
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("hop panicked: %v", r)
		}
	}()

	out, err = h(ctx, text, src, tgt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
