package chunker_test

import (
	"strings"
	"testing"

	"github.com/valpere/lingobot/internal/chunker"
)

func TestSplit_ShortText(t *testing.T) {
	text := "Take an introductory course."
	pieces := chunker.Split(text, 100)
	if len(pieces) != 1 || pieces[0].Text != text {
		t.Fatalf("expected single unchanged piece, got %q", pieces)
	}
}

func TestSplit_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	if pieces := chunker.Split(text, 0); len(pieces) != 1 {
		t.Errorf("expected 1 piece when maxChars=0, got %d", len(pieces))
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if pieces := chunker.Split("  \n ", 100); len(pieces) != 0 {
		t.Errorf("expected no pieces, got %q", pieces)
	}
}

func TestSplit_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []chunker.Piece
	}{
		{
			name: "paragraph",
			text: "First paragraph here.\n\nSecond paragraph here.",
			max:  30,
			want: []chunker.Piece{
				{Text: "First paragraph here.", Sep: "\n\n"},
				{Text: "Second paragraph here."},
			},
		},
		{
			name: "list lines",
			text: "Options:\n- Coursera\n- edX",
			max:  20,
			want: []chunker.Piece{
				{Text: "Options:\n- Coursera", Sep: "\n"},
				{Text: "- edX"},
			},
		},
		{
			name: "sentence",
			text: "Learn Go first. Then learn Rust later on.",
			max:  25,
			want: []chunker.Piece{
				{Text: "Learn Go first.", Sep: " "},
				{Text: "Then learn Rust later on."},
			},
		},
		{
			name: "word",
			text: "one two three four five",
			max:  10,
			want: []chunker.Piece{
				{Text: "one two", Sep: " "},
				{Text: "three four", Sep: " "},
				{Text: "five"},
			},
		},
		{
			name: "hard cut",
			text: "abcdefghij",
			max:  4,
			want: []chunker.Piece{
				{Text: "abcd"},
				{Text: "efgh"},
				{Text: "ij"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunker.Split(tt.text, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("piece %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplit_RespectsLimit(t *testing.T) {
	text := strings.Repeat("Online courses help. ", 40) + "\n\n" + strings.Repeat("बहुत अच्छा है। ", 30)
	for i, p := range chunker.Split(text, 50) {
		if n := len([]rune(p.Text)); n > 50 {
			t.Errorf("piece %d has %d runes", i, n)
		}
		if p.Text != strings.TrimSpace(p.Text) || p.Text == "" {
			t.Errorf("piece %d not trimmed: %q", i, p.Text)
		}
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	text := "Step one: pick a course.\n\nStep two: finish it.\n- tip one\n- tip two"
	if got := chunker.Join(chunker.Split(text, 22)); got != text {
		t.Errorf("Join(Split()) = %q, want %q", got, text)
	}
}
