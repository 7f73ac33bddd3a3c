// Package detector guesses the language of user input so that questions can
// be asked without choosing a language first.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/lingobot/internal/lang"
)

// Detector wraps a lingua-go detector restricted to the languages lingobot
// can translate. Building it is expensive; share one instance.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over every supported language lingua knows about.
func New() *Detector {
	var languages []lingua.Language
	for _, info := range lang.Supported() {
		code := lingua.GetIsoCode639_1FromValue(string(info.Tag))
		if code == lingua.UnknownIsoCode639_1 {
			continue
		}
		if l := lingua.GetLanguageFromIsoCode639_1(code); l != lingua.Unknown {
			languages = append(languages, l)
		}
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var d lingua.LanguageDetector
	if len(languages) >= 2 {
		d = builder.FromLanguages(languages...).Build()
	} else {
		d = builder.FromAllLanguages().Build()
	}
	return &Detector{detector: d}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the upper-case ISO 639-1 code lingua reports.
func (d *Detector) DetectISO(text string) (string, bool) {
	l, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return l.IsoCode639_1().String(), true
}

// DetectTag returns the detected language as a normalized tag.
func (d *Detector) DetectTag(text string) (lang.Tag, bool) {
	code, ok := d.DetectISO(text)
	if !ok || !lang.IsSupported(code) {
		return lang.Default, false
	}
	return lang.Normalize(code), true
}
