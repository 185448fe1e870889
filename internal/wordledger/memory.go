package wordledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryLedger is an in-memory, thread-safe Ledger implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryLedger struct {
	cfg    Config
	minter Minter // nil = no token minting

	mu      sync.RWMutex
	entries []*Entry
}

// New creates an empty MemoryLedger. minter may be nil to disable token
// minting (tests of the ledger alone).
func New(cfg Config, minter Minter) *MemoryLedger {
	return &MemoryLedger{cfg: cfg, minter: minter}
}

// Append implements Ledger. The mint happens before the entry is stored,
// inside the same critical section: if minting fails, no entry exists; once
// the entry is stored nothing can fail, so the pair is atomic.
func (l *MemoryLedger) Append(ctx context.Context, author, content string, payment decimal.Decimal) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.cfg.admit(content, payment, len(l.entries)); err != nil {
		return nil, err
	}

	entry := &Entry{
		Index:       len(l.entries),
		Content:     content,
		Author:      author,
		Paid:        payment,
		SubmittedAt: time.Now().UTC(),
	}

	if l.minter != nil {
		if _, err := l.minter.Mint(ctx, l.cfg.ChapterID, author, entry.Index); err != nil {
			return nil, fmt.Errorf("mint token %d: %w", entry.Index, err)
		}
	}

	l.entries = append(l.entries, entry)
	return entry, nil
}

// Get implements Ledger.
func (l *MemoryLedger) Get(_ context.Context, index int) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("index %d, entry count %d: %w", index, len(l.entries), ErrIndexOutOfBounds)
	}
	return l.entries[index], nil
}

// Segment implements Ledger.
func (l *MemoryLedger) Segment(_ context.Context, start, count int) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if start < 0 || start >= len(l.entries) {
		return nil, fmt.Errorf("start %d, entry count %d: %w", start, len(l.entries), ErrIndexOutOfBounds)
	}
	// Clamp before adding so a huge count cannot overflow past the end.
	end := len(l.entries)
	if count >= 0 && count < end-start {
		end = start + count
	}

	words := make([]string, 0, end-start)
	for _, e := range l.entries[start:end] {
		words = append(words, e.Content)
	}
	return words, nil
}

// Len implements Ledger.
func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries), nil
}

// Complete implements Ledger.
func (l *MemoryLedger) Complete(_ context.Context) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries) == l.cfg.Capacity, nil
}

// FullText implements Ledger.
func (l *MemoryLedger) FullText(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	words := make([]string, len(l.entries))
	for i, e := range l.entries {
		words[i] = e.Content
	}
	return strings.Join(words, " "), nil
}
