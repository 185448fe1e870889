package chapter

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/prologue-labs/storyledger/internal/wordledger"
	"github.com/prologue-labs/storyledger/pkg/wordpolicy"
)

// Chapter is one deployed story ledger. Everything except CreatedAt is
// fixed at creation time and never re-configured.
type Chapter struct {
	ID          uuid.UUID       `json:"id"           db:"id"`
	Slug        string          `json:"slug"         db:"slug"`
	Title       string          `json:"title"        db:"title"`
	Capacity    int             `json:"capacity"     db:"capacity"`
	UnitPrice   decimal.Decimal `json:"unit_price"   db:"unit_price"`
	MinWordLen  int             `json:"min_word_len" db:"min_word_len"`
	MaxWordLen  int             `json:"max_word_len" db:"max_word_len"`
	Punctuation string          `json:"punctuation"  db:"punctuation"`
	CreatedAt   time.Time       `json:"created_at"   db:"created_at"`
}

// LedgerConfig builds the immutable ledger configuration for this chapter.
func (c *Chapter) LedgerConfig() wordledger.Config {
	return wordledger.Config{
		ChapterID: c.ID,
		Capacity:  c.Capacity,
		UnitPrice: c.UnitPrice,
		Policy: wordpolicy.Policy{
			MinLen:      c.MinWordLen,
			MaxLen:      c.MaxWordLen,
			Punctuation: c.Punctuation,
		},
	}
}

// CreateRequest is the payload for creating a new chapter.
// Zero MinWordLen/MaxWordLen and an absent punctuation fall back to the
// default word policy; zero UnitPrice is valid (a free chapter).
type CreateRequest struct {
	Slug        string  `json:"slug"     binding:"required"`
	Title       string  `json:"title"    binding:"required"`
	Capacity    int     `json:"capacity" binding:"required"`
	UnitPrice   string  `json:"unit_price"`
	MinWordLen  int     `json:"min_word_len"`
	MaxWordLen  int     `json:"max_word_len"`
	Punctuation *string `json:"punctuation"`
}

// AppendRequest is the payload for appending a word to a chapter.
// The author is never part of the body; it comes from the verified
// bearer token.
type AppendRequest struct {
	Content string `json:"content" binding:"required"`
	Payment string `json:"payment" binding:"required"`
}

// ErrValidation marks a caller-correctable request error. Handlers map it
// to HTTP 400.
type ErrValidation struct {
	Msg string
}

func (e *ErrValidation) Error() string { return e.Msg }

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks the chapter slug format: lowercase alphanumerics and
// single hyphens, e.g. "prologue" or "chapter-2".
func ValidateSlug(slug string) error {
	if !slugRe.MatchString(slug) {
		return &ErrValidation{Msg: "slug must be lowercase alphanumerics separated by hyphens"}
	}
	return nil
}
