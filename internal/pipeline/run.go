// Package pipeline answers a question asked in any supported language: the
// question is pivoted into English, answered by a generation backend and the
// answer is pivoted into the target language.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/pivot"
)

// AnswerFunc produces an English answer for an English prompt.
type AnswerFunc func(ctx context.Context, prompt string) (string, error)

// Run is the minimal form of Ask. srcLang and tgtLang are normalized; an
// empty tgtLang answers in the source language. A nil answer echoes the
// prompt, which turns Run into a plain pivot translation.
//
// Run never fails. Translation failures fall back to the untranslated text;
// a generation failure yields an English error string that is not
// back-translated.
func Run(ctx context.Context, rawText, srcLang, tgtLang string, forward, backward pivot.Hop, answer AnswerFunc) (string, lang.Tag) {
	src := lang.Normalize(srcLang)
	tgt := src
	if strings.TrimSpace(tgtLang) != "" {
		tgt = lang.Normalize(tgtLang)
	}

	question := pivot.Translate(ctx, rawText, src, lang.English, forward, backward)

	english, err := callAnswer(ctx, answer, question.Text)
	if err != nil {
		return fmt.Sprintf("[answer error: %v]", err), src
	}

	return pivot.Translate(ctx, english, lang.English, tgt, forward, backward).Text, src
}

func callAnswer(ctx context.Context, answer AnswerFunc, prompt string) (out string, err error) {
	if answer == nil {
		return prompt, nil
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("answer panicked: %v", r)
		}
	}()
	out, err = answer(ctx, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = fmt.Errorf("empty answer")
	}
	return out, err
}
