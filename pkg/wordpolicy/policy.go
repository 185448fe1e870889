// Package wordpolicy defines the admission policy for story words.
//
// A word is admitted when its rune count lies within the policy's length
// bounds and every rune belongs to the allowed set: ASCII letters, digits,
// and a fixed punctuation whitelist. The policy is fixed when a chapter is
// created and never changes afterwards.
package wordpolicy

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultPunctuation is the punctuation whitelist applied when a chapter
// does not override it.
const DefaultPunctuation = `.,;:!?'"()-`

// Rejection reasons returned by Validate. Callers match with errors.Is.
var (
	// ErrInvalidLength — rune count outside the policy's [min, max] bounds.
	ErrInvalidLength = errors.New("word length out of bounds")

	// ErrInvalidCharacter — a rune outside letters, digits, and the
	// punctuation whitelist.
	ErrInvalidCharacter = errors.New("word contains forbidden character")
)

// Policy is a word admission policy. The zero value rejects everything;
// use Default or New.
type Policy struct {
	MinLen      int    // minimum rune count, inclusive
	MaxLen      int    // maximum rune count, inclusive
	Punctuation string // allowed punctuation runes, in addition to [A-Za-z0-9]
}

// Default returns the canonical policy: 1–100 runes, DefaultPunctuation.
func Default() Policy {
	return Policy{MinLen: 1, MaxLen: 100, Punctuation: DefaultPunctuation}
}

// New builds a policy with explicit bounds. An empty punctuation string
// means "no punctuation allowed", not the default set.
func New(minLen, maxLen int, punctuation string) (Policy, error) {
	if minLen < 1 {
		return Policy{}, fmt.Errorf("min length must be >= 1, got %d", minLen)
	}
	if maxLen < minLen {
		return Policy{}, fmt.Errorf("max length %d is below min length %d", maxLen, minLen)
	}
	return Policy{MinLen: minLen, MaxLen: maxLen, Punctuation: punctuation}, nil
}

// Validate checks content against the policy. Length is checked before
// character class so the first failing rule wins deterministically.
func (p Policy) Validate(content string) error {
	n := utf8.RuneCountInString(content)
	if n < p.MinLen || n > p.MaxLen {
		return fmt.Errorf("word is %d runes, allowed range is [%d,%d]: %w",
			n, p.MinLen, p.MaxLen, ErrInvalidLength)
	}
	for _, r := range content {
		if !p.allowed(r) {
			return fmt.Errorf("rune %q is not in the allowed set: %w", r, ErrInvalidCharacter)
		}
	}
	return nil
}

// allowed reports whether a single rune is admissible.
func (p Policy) allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(p.Punctuation, r)
}
