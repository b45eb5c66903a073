package filter

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLength = 200
	DefaultMaxWords  = 40
)

// Thresholds decides whether feed content is too terse to stand on its own
type Thresholds struct {
	MaxLength int // Content up to this many characters is short
	MaxWords  int // Content with up to this many tokens is short
}

// DefaultThresholds returns the 200 characters / 40 tokens limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLength: DefaultMaxLength,
		MaxWords:  DefaultMaxWords,
	}
}

// IsShort returns true if text is empty, within MaxLength characters
// or within MaxWords whitespace-delimited tokens
func (t Thresholds) IsShort(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	// 1. Check length
	if utf8.RuneCountInString(trimmed) <= t.MaxLength {
		return true
	}

	// 2. Check token count
	return countWords(trimmed) <= t.MaxWords
}

// countWords counts whitespace-delimited tokens in text
func countWords(text string) int {
	return len(strings.Fields(text))
}
