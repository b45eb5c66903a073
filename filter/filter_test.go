package filter

import (
	"fmt"
	"strings"
	"testing"
)

// tokens builds n distinct tokens of the given width joined by single spaces
func tokens(n, width int) string {
	words := make([]string, n)
	for i := range words {
		w := fmt.Sprintf("w%d", i)
		words[i] = w + strings.Repeat("x", width-len(w))
	}
	return strings.Join(words, " ")
}

func TestThresholds_IsShort(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name    string
		text    string
		isShort bool
	}{
		{
			name:    "empty",
			text:    "",
			isShort: true,
		},
		{
			name:    "whitespace only",
			text:    "  \n\t ",
			isShort: true,
		},
		{
			name:    "breaking news",
			text:    "Breaking news.",
			isShort: true,
		},
		{
			name:    "exactly 200 characters",
			text:    strings.Repeat("a", 200),
			isShort: true,
		},
		{
			name:    "200 characters after trimming",
			text:    "   " + strings.Repeat("a", 200) + "\n\n",
			isShort: true,
		},
		{
			name:    "201 characters in a single token",
			text:    strings.Repeat("a", 201),
			isShort: true,
		},
		{
			name:    "multibyte characters counted as runes",
			text:    strings.Repeat("é", 200),
			isShort: true,
		},
		{
			name:    "40 tokens longer than 200 characters",
			text:    tokens(40, 9),
			isShort: true,
		},
		{
			name:    "41 distinct tokens longer than 200 characters",
			text:    tokens(41, 9),
			isShort: false,
		},
		{
			name:    "long article",
			text:    tokens(300, 6),
			isShort: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.IsShort(tt.text); got != tt.isShort {
				t.Errorf("IsShort() = %v, want %v (len=%d)", got, tt.isShort, len(tt.text))
			}
		})
	}
}

func TestThresholds_Custom(t *testing.T) {
	th := Thresholds{MaxLength: 10, MaxWords: 2}

	if !th.IsShort("short") {
		t.Error("expected short text within 10 characters")
	}
	if !th.IsShort("twoverylongtokens andanother") {
		t.Error("expected 2 tokens to be short")
	}
	if th.IsShort("three long tokens here") {
		t.Error("expected 4 tokens over 10 characters not to be short")
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text  string
		count int
	}{
		{"", 0},
		{"one", 1},
		{"one two\tthree\nfour", 4},
		{"  padded   words  ", 2},
		{"don't split-words, please!", 3},
	}

	for _, tt := range tests {
		if got := countWords(tt.text); got != tt.count {
			t.Errorf("countWords(%q) = %d, want %d", tt.text, got, tt.count)
		}
	}
}
