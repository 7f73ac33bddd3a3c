// Package validator rejects translations that came back in the wrong language.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valpere/lingobot/internal/detector"
	"github.com/valpere/lingobot/internal/lang"
)

// MinRunes is the shortest text the detector is trusted on. Anything shorter
// passes unchecked.
const MinRunes = 20

var ErrEmpty = errors.New("translation is empty")

// MismatchError reports a translation detected in another language than the
// one requested.
type MismatchError struct {
	Want lang.Tag
	Got  lang.Tag
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s but detected %s", e.Want, e.Got)
}

// TagDetector is the part of *detector.Detector the validator needs.
type TagDetector interface {
	DetectTag(text string) (lang.Tag, bool)
}

type Validator struct {
	det TagDetector
}

// New creates a Validator on top of det. A nil det builds a fresh lingua
// detector, which takes seconds; share one where possible.
func New(det TagDetector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// Check returns nil when text is acceptable as a translation into target.
// An empty target, short text and text whose language cannot be determined
// all pass. A detected language other than target yields a *MismatchError.
func (v *Validator) Check(text string, target lang.Tag) error {
	if target == "" {
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(text) < MinRunes {
		return nil
	}

	got, ok := v.det.DetectTag(text)
	if !ok || got == target {
		return nil
	}
	return &MismatchError{Want: target, Got: got}
}
