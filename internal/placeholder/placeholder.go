// Package placeholder shields markup in an answer from machine translation.
// Code, URLs and HTML tags are swapped for numbered markers (⟦0⟧, ⟦1⟧, …)
// before the backward hop and put back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// One alternation scanned left to right: whichever span starts first
	// wins, and fenced code beats inline code at the same offset. Text that
	// already looks like a marker is captured as well.
	reMarkup = regexp.MustCompile("(?s:```.*?```)" +
		"|`[^`\n]+`" +
		`|</?[a-zA-Z][^<>]*>` +
		`|https?://[^\s<>()\[\]"']+[^\s<>()\[\]"'.,;:!?]` +
		`|(?:⟦|\[\[)\s*\d+\s*(?:⟧|\]\])`)

	// Translators sometimes pad the marker with spaces or swap the brackets
	// for ASCII ones.
	reMarker = regexp.MustCompile(`(?:⟦|\[\[)\s*(\d+)\s*(?:⟧|\]\])`)
)

// Markers holds the originals captured by Protect, indexed by marker number.
type Markers []string

// Marker renders the placeholder for index i.
func Marker(i int) string {
	return fmt.Sprintf("⟦%d⟧", i)
}

// Protect replaces fenced code, inline code, HTML tags, bare URLs and
// marker lookalikes with markers in a single pass, so a URL inside a tag
// stays part of the tag and a literal "[[0]]" comes back verbatim. Text
// without markup is returned as is with no markers.
func Protect(text string) (string, Markers) {
	var markers Markers
	text = reMarkup.ReplaceAllStringFunc(text, func(match string) string {
		markers = append(markers, match)
		return Marker(len(markers) - 1)
	})
	return text, markers
}

// Restore puts the originals back. Markers with unknown indices are left
// untouched.
func (m Markers) Restore(text string) string {
	if len(m) == 0 {
		return text
	}
	return reMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reMarker.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(m) {
			return match
		}
		return m[idx]
	})
}

// Missing lists the indices whose markers the translation dropped.
func (m Markers) Missing(text string) []int {
	if len(m) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(m))
	for _, sub := range reMarker.FindAllStringSubmatch(text, -1) {
		if idx, err := strconv.Atoi(sub[1]); err == nil {
			seen[idx] = true
		}
	}
	var missing []int
	for i := range m {
		if !seen[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// Recover appends the originals of any dropped markers to text so nothing
// is silently lost, one per line.
func (m Markers) Recover(text string) string {
	missing := m.Missing(text)
	if len(missing) == 0 {
		return m.Restore(text)
	}
	var sb strings.Builder
	sb.WriteString(m.Restore(text))
	for _, i := range missing {
		sb.WriteString("\n")
		sb.WriteString(m[i])
	}
	return sb.String()
}
