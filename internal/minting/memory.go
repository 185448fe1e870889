package minting

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory, thread-safe Registry implementation.
type MemoryRegistry struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]map[int]*Token
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{tokens: make(map[uuid.UUID]map[int]*Token)}
}

// Mint implements Registry.
func (r *MemoryRegistry) Mint(_ context.Context, chapterID uuid.UUID, owner string, tokenID int) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chapter, ok := r.tokens[chapterID]
	if !ok {
		chapter = make(map[int]*Token)
		r.tokens[chapterID] = chapter
	}
	if _, exists := chapter[tokenID]; exists {
		return nil, ErrAlreadyMinted
	}

	tok := &Token{
		ChapterID: chapterID,
		TokenID:   tokenID,
		Owner:     owner,
		MintedAt:  time.Now().UTC(),
	}
	chapter[tokenID] = tok
	return tok, nil
}

// OwnerOf implements Registry.
func (r *MemoryRegistry) OwnerOf(_ context.Context, chapterID uuid.UUID, tokenID int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tok, ok := r.tokens[chapterID][tokenID]
	if !ok {
		return "", ErrTokenNotFound
	}
	return tok.Owner, nil
}

// TokensOf implements Registry.
func (r *MemoryRegistry) TokensOf(_ context.Context, chapterID uuid.UUID, owner string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int
	for id, tok := range r.tokens[chapterID] {
		if tok.Owner == owner {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// Count implements Registry.
func (r *MemoryRegistry) Count(_ context.Context, chapterID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens[chapterID]), nil
}
