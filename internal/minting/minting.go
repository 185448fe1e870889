// Package minting implements the ownership token registry paired with the
// word ledger.
//
// Every admitted word mints exactly one token, keyed by the word's sequence
// index within its chapter, to the submitting author. The registry is a
// capability the ledger calls into at admission time; transfer semantics
// live outside the ledger's invariants.
//
// Two implementations of the Registry interface are provided:
//   - MemoryRegistry: in-process, for testing and development.
//   - PostgresRegistry: durable, for production use.
package minting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTokenNotFound is returned by OwnerOf for an unminted token id.
	ErrTokenNotFound = errors.New("token not found")

	// ErrAlreadyMinted signals a duplicate mint for a (chapter, token id)
	// pair. The ledger assigns each index exactly once, so hitting this is
	// an internal invariant violation, not a caller error.
	ErrAlreadyMinted = errors.New("token already minted")
)

// Token is one ownership record: a (chapter, sequence index) pair bound to
// the address it was minted to. Immutable after minting.
type Token struct {
	ChapterID uuid.UUID `json:"chapter_id"`
	TokenID   int       `json:"token_id"` // == the word's sequence index
	Owner     string    `json:"owner"`
	MintedAt  time.Time `json:"minted_at"`
}

// Registry is the interface for the ownership token registry.
// Both MemoryRegistry and PostgresRegistry implement this interface.
type Registry interface {
	// Mint creates the token for tokenID in the given chapter, owned by
	// owner. Each (chapter, tokenID) pair can be minted at most once.
	Mint(ctx context.Context, chapterID uuid.UUID, owner string, tokenID int) (*Token, error)

	// OwnerOf returns the owner address of a minted token.
	OwnerOf(ctx context.Context, chapterID uuid.UUID, tokenID int) (string, error)

	// TokensOf returns the token ids minted to owner within a chapter,
	// in ascending order.
	TokensOf(ctx context.Context, chapterID uuid.UUID, owner string) ([]int, error)

	// Count returns the number of tokens minted in a chapter.
	Count(ctx context.Context, chapterID uuid.UUID) (int, error)
}
