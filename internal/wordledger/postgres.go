package wordledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"github.com/prologue-labs/storyledger/internal/minting"
)

// PostgresLedger persists a chapter's word ledger to PostgreSQL.
// It implements the Ledger interface.
type PostgresLedger struct {
	pool     *pgxpool.Pool
	cfg      Config
	registry *minting.PostgresRegistry // nil = no token minting
	logger   *zap.Logger
}

// NewPostgresLedger creates a PostgresLedger for one chapter, backed by the
// given connection pool. registry may be nil to disable token minting.
func NewPostgresLedger(pool *pgxpool.Pool, cfg Config, registry *minting.PostgresRegistry, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{pool: pool, cfg: cfg, registry: registry, logger: logger}
}

// advisoryKey derives a stable per-chapter advisory lock key so concurrent
// appends to the same chapter are serialised while other chapters proceed.
func (l *PostgresLedger) advisoryKey() int64 {
	id := l.cfg.ChapterID
	return int64(binary.BigEndian.Uint64(id[0:8]))
}

// Append implements Ledger.
// It acquires a per-chapter PostgreSQL advisory lock, reads the current
// entry count, validates, and inserts the word row and its ownership token
// within a single transaction. The lock releases on commit or rollback.
func (l *PostgresLedger) Append(ctx context.Context, author, content string, payment decimal.Decimal) (*Entry, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", l.advisoryKey()); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM words WHERE chapter_id = $1", l.cfg.ChapterID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}

	if err := l.cfg.admit(content, payment, count); err != nil {
		return nil, err
	}

	entry := &Entry{
		Index:       count,
		Content:     content,
		Author:      author,
		Paid:        payment,
		SubmittedAt: time.Now().UTC(),
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO words (chapter_id, idx, content, author_address, paid, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.cfg.ChapterID, entry.Index, entry.Content,
		entry.Author, entry.Paid.String(), entry.SubmittedAt,
	); err != nil {
		return nil, fmt.Errorf("insert word: %w", err)
	}

	if l.registry != nil {
		if _, err := l.registry.MintTx(ctx, tx, l.cfg.ChapterID, author, entry.Index); err != nil {
			return nil, fmt.Errorf("mint token %d: %w", entry.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append tx: %w", err)
	}

	l.logger.Debug("word appended",
		zap.String("chapter_id", l.cfg.ChapterID.String()),
		zap.Int("idx", entry.Index),
		zap.String("author", entry.Author),
	)
	return entry, nil
}

// Get implements Ledger.
func (l *PostgresLedger) Get(ctx context.Context, index int) (*Entry, error) {
	var (
		entry Entry
		paid  string
	)
	err := l.pool.QueryRow(ctx,
		`SELECT idx, content, author_address, paid, submitted_at
		 FROM words WHERE chapter_id = $1 AND idx = $2`,
		l.cfg.ChapterID, index,
	).Scan(&entry.Index, &entry.Content, &entry.Author, &paid, &entry.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("index %d: %w", index, ErrIndexOutOfBounds)
	}
	if err != nil {
		return nil, fmt.Errorf("get word %d: %w", index, err)
	}
	entry.Paid, err = decimal.NewFromString(paid)
	if err != nil {
		return nil, fmt.Errorf("parse paid amount %q: %w", paid, err)
	}
	return &entry, nil
}

// Segment implements Ledger. Reads observe only committed rows, so a
// segment is always a consistent snapshot as of call time.
func (l *PostgresLedger) Segment(ctx context.Context, start, count int) ([]string, error) {
	n, err := l.Len(ctx)
	if err != nil {
		return nil, err
	}
	if start < 0 || start >= n {
		return nil, fmt.Errorf("start %d, entry count %d: %w", start, n, ErrIndexOutOfBounds)
	}
	// Clamp before adding so a huge count cannot overflow past the end.
	end := n
	if count >= 0 && count < n-start {
		end = start + count
	}

	rows, err := l.pool.Query(ctx,
		`SELECT content FROM words
		 WHERE chapter_id = $1 AND idx >= $2 AND idx < $3
		 ORDER BY idx ASC`,
		l.cfg.ChapterID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query segment: %w", err)
	}
	defer rows.Close()

	words := make([]string, 0, end-start)
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Len implements Ledger.
func (l *PostgresLedger) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM words WHERE chapter_id = $1", l.cfg.ChapterID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

// Complete implements Ledger.
func (l *PostgresLedger) Complete(ctx context.Context) (bool, error) {
	n, err := l.Len(ctx)
	if err != nil {
		return false, err
	}
	return n == l.cfg.Capacity, nil
}

// FullText implements Ledger. Streams every row ordered by idx; O(n) in
// ledger length by design.
func (l *PostgresLedger) FullText(ctx context.Context) (string, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT content FROM words WHERE chapter_id = $1 ORDER BY idx ASC`,
		l.cfg.ChapterID,
	)
	if err != nil {
		return "", fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return "", fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), rows.Err()
}
