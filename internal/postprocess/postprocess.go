// Package postprocess strips model artifacts from translations and
// generated answers.
//
// Translation output goes through Clean. Generated answers go through
// Answer, which additionally removes the echoed prompt that completion-style
// models return and drops a trailing half sentence cut off by the token limit.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"
)

// Clean removes thinking blocks, leading boilerplate ("Here is the
// translation:") and wrapping quotes, then trims the result.
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeLeadIns(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// Answer cleans a generated answer for prompt.
func Answer(prompt, text string) string {
	text = StripEcho(prompt, text)
	text = Clean(text)
	return TrimPartialSentence(text)
}

// thinkingBlockRe matches complete <think>…</think> style blocks. RE2 has no
// backreferences, so every tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened block whose closing tag never came.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// leadInPatterns are anchored at the start and require a colon, so ordinary
// sentences that merely begin with "Here is" survive.
var leadInPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]?\s*`),
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| my)? (?:refined |polished |translated )?(?:translation|text|answer)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:answer|a)\s*:`),
}

func removeLeadIns(text string) string {
	// The courtesy prefix only goes when a colon lead-in follows it.
	if loc := leadInPatterns[0].FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if stripped := stripColonLeadIn(rest); stripped != rest {
			return stripped
		}
	}
	return stripColonLeadIn(text)
}

func stripColonLeadIn(text string) string {
	for _, re := range leadInPatterns[1:] {
		if loc := re.FindStringIndex(text); loc != nil {
			return strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'\u201C': '\u201D',
	'\u2018': '\u2019',
}

// removeQuoteWrapping strips one matching pair of outer quotes.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[len(runes)-1] == closing {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return text
}

// StripEcho removes prompt from the start of text. Completion models return
// the prompt followed by the continuation; chat models usually do not, and
// their output is returned unchanged. Whitespace differences are tolerated.
func StripEcho(prompt, text string) string {
	prompt = strings.TrimSpace(prompt)
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if prompt == "" {
		return text
	}
	if strings.HasPrefix(trimmed, prompt) {
		return strings.TrimSpace(trimmed[len(prompt):])
	}

	// Fall back to a whitespace-insensitive match, walking both strings.
	pr, tr := []rune(prompt), []rune(trimmed)
	i, j := 0, 0
	for i < len(pr) && j < len(tr) {
		switch {
		case unicode.IsSpace(pr[i]) && unicode.IsSpace(tr[j]):
			for i < len(pr) && unicode.IsSpace(pr[i]) {
				i++
			}
			for j < len(tr) && unicode.IsSpace(tr[j]) {
				j++
			}
		case pr[i] == tr[j]:
			i++
			j++
		default:
			return text
		}
	}
	if i < len(pr) {
		return text
	}
	return strings.TrimSpace(string(tr[j:]))
}

// TrimPartialSentence drops an unfinished trailing sentence, but only when at
// least one complete sentence precedes it. A terminator counts only when
// whitespace follows it, so "3.5" is not a sentence end.
func TrimPartialSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || endsSentence(text) {
		return text
	}
	end := -1
	prevTerm := false
	for i, r := range text {
		if prevTerm && unicode.IsSpace(r) {
			end = i
		}
		prevTerm = isTerminator(r)
	}
	if end <= 0 {
		return text
	}
	return strings.TrimSpace(text[:end])
}

func endsSentence(text string) bool {
	r := []rune(strings.TrimRight(text, "\"')»”’"))
	return len(r) > 0 && isTerminator(r[len(r)-1])
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '।', '؟':
		return true
	}
	return false
}
