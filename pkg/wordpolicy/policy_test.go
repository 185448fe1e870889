package wordpolicy_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prologue-labs/storyledger/pkg/wordpolicy"
)

func TestValidate_admitted(t *testing.T) {
	p := wordpolicy.Default()

	cases := []string{
		"hello",
		"world",
		"O'Brien",
		"end.",
		"well-known",
		"\"quoted\"",
		"x",
		strings.Repeat("a", 100),
	}
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			if err := p.Validate(tc); err != nil {
				t.Errorf("Validate(%q): unexpected error: %v", tc, err)
			}
		})
	}
}

func TestValidate_lengthBounds(t *testing.T) {
	p := wordpolicy.Default()

	for _, tc := range []string{"", strings.Repeat("a", 101)} {
		if err := p.Validate(tc); !errors.Is(err, wordpolicy.ErrInvalidLength) {
			t.Errorf("Validate(len=%d): got %v, want ErrInvalidLength", len(tc), err)
		}
	}
}

func TestValidate_forbiddenCharacter(t *testing.T) {
	p := wordpolicy.Default()

	cases := []string{"hello world", "tab\there", "<script>", "emoji🙂", "under_score"}
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			if err := p.Validate(tc); !errors.Is(err, wordpolicy.ErrInvalidCharacter) {
				t.Errorf("Validate(%q): got %v, want ErrInvalidCharacter", tc, err)
			}
		})
	}
}

func TestValidate_lengthCheckedBeforeCharacter(t *testing.T) {
	p := wordpolicy.Default()

	// 101 runes of an illegal character: length must win.
	bad := strings.Repeat(" ", 101)
	if err := p.Validate(bad); !errors.Is(err, wordpolicy.ErrInvalidLength) {
		t.Errorf("got %v, want ErrInvalidLength to take precedence", err)
	}
}

func TestValidate_runesNotBytes(t *testing.T) {
	// 100 two-byte runes are 200 bytes but still within a 100-rune bound.
	p, err := wordpolicy.New(1, 100, "é")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Validate(strings.Repeat("é", 100)); err != nil {
		t.Errorf("100-rune word rejected: %v", err)
	}
}

func TestNew_invalidBounds(t *testing.T) {
	if _, err := wordpolicy.New(0, 10, ""); err == nil {
		t.Error("expected error for min length 0")
	}
	if _, err := wordpolicy.New(5, 4, ""); err == nil {
		t.Error("expected error for max < min")
	}
}

func TestNew_emptyPunctuationMeansNone(t *testing.T) {
	p, err := wordpolicy.New(1, 100, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Validate("end."); !errors.Is(err, wordpolicy.ErrInvalidCharacter) {
		t.Errorf("got %v, want ErrInvalidCharacter for punctuation with empty whitelist", err)
	}
}
