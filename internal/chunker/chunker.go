// Package chunker splits long answers into pieces that fit the request size
// limits of machine-translation services, remembering the whitespace between
// pieces so a translated answer keeps its paragraphs and list lines.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Piece is one chunk of text and the separator that followed it.
type Piece struct {
	Text string
	// Sep is "\n\n", "\n", " " or "" (hard cut, or the last piece).
	Sep string
}

// Split cuts text into pieces of at most maxChars runes. Boundaries are
// preferred in this order: blank line, line break, sentence end followed by
// whitespace, any whitespace, and finally a hard cut. maxChars <= 0 means
// unlimited. Blank text yields no pieces.
func Split(text string, maxChars int) []Piece {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []Piece{{Text: text}}
	}

	var pieces []Piece
	rest := []rune(text)
	for len(rest) > maxChars {
		end, next := findSplit(rest, maxChars)
		pieces = append(pieces, Piece{
			Text: strings.TrimSpace(string(rest[:end])),
			Sep:  separator(rest[end:next]),
		})
		rest = rest[next:]
	}
	if len(rest) > 0 {
		pieces = append(pieces, Piece{Text: string(rest)})
	}
	return pieces
}

// Join reassembles pieces, typically after their Text was translated.
func Join(pieces []Piece) string {
	var sb strings.Builder
	for i, p := range pieces {
		sb.WriteString(p.Text)
		if i < len(pieces)-1 {
			sb.WriteString(p.Sep)
		}
	}
	return sb.String()
}

// findSplit returns the end of the head and the start of the remainder.
func findSplit(r []rune, maxChars int) (end, next int) {
	para, line, sentence, space := -1, -1, -1, -1
	limit := min(maxChars, len(r)-1)
	for i := 1; i <= limit; i++ {
		if !unicode.IsSpace(r[i]) {
			continue
		}
		space = i
		if isTerminator(r[i-1]) {
			sentence = i
		}
		if r[i] == '\n' {
			line = i
			if i+1 < len(r) && r[i+1] == '\n' {
				para = i
			}
		}
	}

	end = maxChars
	for _, c := range []int{para, line, sentence, space} {
		if c > 0 {
			end = c
			break
		}
	}

	next = end
	for next < len(r) && unicode.IsSpace(r[next]) {
		next++
	}
	return end, next
}

func separator(ws []rune) string {
	s := string(ws)
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "\n\n"):
		return "\n\n"
	case strings.Contains(s, "\n"):
		return "\n"
	default:
		return " "
	}
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '।', '؟':
		return true
	}
	return false
}
