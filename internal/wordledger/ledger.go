package wordledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/prologue-labs/storyledger/internal/minting"
	"github.com/prologue-labs/storyledger/pkg/wordpolicy"
)

// Rejection reasons for Append and Segment. Content rejections
// (wordpolicy.ErrInvalidLength, wordpolicy.ErrInvalidCharacter) pass
// through from the policy unchanged.
var (
	// ErrCapacityExceeded — the ledger already holds Capacity entries.
	// Permanent for this ledger; callers must move to another chapter.
	ErrCapacityExceeded = errors.New("ledger is at capacity")

	// ErrInsufficientPayment — payment below the unit price. Retryable
	// with the correct amount. Overpayment is accepted, never refunded.
	ErrInsufficientPayment = errors.New("payment below unit price")

	// ErrIndexOutOfBounds — a read addressed an index at or past the
	// current entry count.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)

// Minter is the ownership-registry capability the ledger calls at admission
// time. minting.MemoryRegistry and minting.PostgresRegistry satisfy it.
type Minter interface {
	Mint(ctx context.Context, chapterID uuid.UUID, owner string, tokenID int) (*minting.Token, error)
}

// Config is the immutable configuration a ledger is created with.
type Config struct {
	ChapterID uuid.UUID
	Capacity  int
	UnitPrice decimal.Decimal
	Policy    wordpolicy.Policy
}

// admit runs the Append precondition checks against the current entry
// count. Order is fixed: capacity, payment, content. First failure wins.
func (c Config) admit(content string, payment decimal.Decimal, count int) error {
	if count >= c.Capacity {
		return fmt.Errorf("chapter holds %d of %d words: %w", count, c.Capacity, ErrCapacityExceeded)
	}
	if payment.LessThan(c.UnitPrice) {
		return fmt.Errorf("paid %s, unit price is %s: %w", payment, c.UnitPrice, ErrInsufficientPayment)
	}
	return c.Policy.Validate(content)
}

// Ledger is the interface for the append-only word ledger.
// Both MemoryLedger and PostgresLedger implement this interface.
type Ledger interface {
	// Append admits one word: validates it, records it at the next
	// sequence index, and mints the paired ownership token to author.
	// All effects happen atomically or not at all.
	Append(ctx context.Context, author, content string, payment decimal.Decimal) (*Entry, error)

	// Get returns the entry at the given zero-based sequence index.
	Get(ctx context.Context, index int) (*Entry, error)

	// Segment returns up to count word contents starting at start, in
	// sequence order. count is clamped to the end of the ledger; a start
	// at or past the entry count fails with ErrIndexOutOfBounds.
	Segment(ctx context.Context, start, count int) ([]string, error)

	// Len returns the current entry count.
	Len(ctx context.Context) (int, error)

	// Complete reports whether the ledger has reached capacity.
	Complete(ctx context.Context) (bool, error)

	// FullText joins every word with single spaces in sequence order.
	// Cost grows linearly with ledger size; it is a verification aid,
	// not a primary read path.
	FullText(ctx context.Context) (string, error)
}
