package minting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prologue-labs/storyledger/internal/minting"
)

var ctx = context.Background()

func TestMint_assignsOwner(t *testing.T) {
	r := minting.NewMemoryRegistry()
	chapter := uuid.New()

	tok, err := r.Mint(ctx, chapter, "0xabc", 0)
	if err != nil {
		t.Fatal(err)
	}
	if tok.TokenID != 0 || tok.Owner != "0xabc" {
		t.Errorf("minted token = %+v, want id 0 owned by 0xabc", tok)
	}

	owner, err := r.OwnerOf(ctx, chapter, 0)
	if err != nil {
		t.Fatal(err)
	}
	if owner != "0xabc" {
		t.Errorf("OwnerOf(0) = %q, want %q", owner, "0xabc")
	}
}

func TestMint_duplicateRejected(t *testing.T) {
	r := minting.NewMemoryRegistry()
	chapter := uuid.New()

	if _, err := r.Mint(ctx, chapter, "0xabc", 7); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Mint(ctx, chapter, "0xdef", 7); !errors.Is(err, minting.ErrAlreadyMinted) {
		t.Errorf("second mint: got %v, want ErrAlreadyMinted", err)
	}

	// Original owner is untouched.
	owner, _ := r.OwnerOf(ctx, chapter, 7)
	if owner != "0xabc" {
		t.Errorf("owner after duplicate mint = %q, want %q", owner, "0xabc")
	}
}

func TestOwnerOf_unminted(t *testing.T) {
	r := minting.NewMemoryRegistry()
	if _, err := r.OwnerOf(ctx, uuid.New(), 3); !errors.Is(err, minting.ErrTokenNotFound) {
		t.Errorf("got %v, want ErrTokenNotFound", err)
	}
}

func TestTokensOf_sortedPerOwner(t *testing.T) {
	r := minting.NewMemoryRegistry()
	chapter := uuid.New()

	for i, owner := range []string{"0xaaa", "0xbbb", "0xaaa", "0xaaa", "0xbbb"} {
		if _, err := r.Mint(ctx, chapter, owner, i); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := r.TokensOf(ctx, chapter, "0xaaa")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("TokensOf = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("TokensOf[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestCount_perChapter(t *testing.T) {
	r := minting.NewMemoryRegistry()
	a, b := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := r.Mint(ctx, a, "0xaaa", i); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Mint(ctx, b, "0xaaa", 0); err != nil {
		t.Fatal(err)
	}

	if n, _ := r.Count(ctx, a); n != 3 {
		t.Errorf("Count(a) = %d, want 3", n)
	}
	if n, _ := r.Count(ctx, b); n != 1 {
		t.Errorf("Count(b) = %d, want 1", n)
	}
}
