package minting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// PostgresRegistry persists ownership tokens to the tokens table.
// It implements the Registry interface.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry creates a PostgresRegistry backed by the given pool.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// Mint implements Registry. For atomic append+mint, the ledger uses MintTx
// inside its own transaction instead.
func (r *PostgresRegistry) Mint(ctx context.Context, chapterID uuid.UUID, owner string, tokenID int) (*Token, error) {
	return mint(ctx, r.pool, chapterID, owner, tokenID)
}

// MintTx mints within a caller-owned transaction. The token insert commits
// or rolls back together with the rest of the transaction.
func (r *PostgresRegistry) MintTx(ctx context.Context, tx pgx.Tx, chapterID uuid.UUID, owner string, tokenID int) (*Token, error) {
	return mint(ctx, tx, chapterID, owner, tokenID)
}

// execer covers both *pgxpool.Pool and pgx.Tx for the single mint insert.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func mint(ctx context.Context, db execer, chapterID uuid.UUID, owner string, tokenID int) (*Token, error) {
	tok := &Token{
		ChapterID: chapterID,
		TokenID:   tokenID,
		Owner:     owner,
		MintedAt:  time.Now().UTC(),
	}

	_, err := db.Exec(ctx,
		`INSERT INTO tokens (chapter_id, token_id, owner, minted_at)
		 VALUES ($1, $2, $3, $4)`,
		tok.ChapterID, tok.TokenID, tok.Owner, tok.MintedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyMinted
		}
		return nil, fmt.Errorf("insert token: %w", err)
	}
	return tok, nil
}

// OwnerOf implements Registry.
func (r *PostgresRegistry) OwnerOf(ctx context.Context, chapterID uuid.UUID, tokenID int) (string, error) {
	var owner string
	err := r.pool.QueryRow(ctx,
		`SELECT owner FROM tokens WHERE chapter_id = $1 AND token_id = $2`,
		chapterID, tokenID,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get token owner: %w", err)
	}
	return owner, nil
}

// TokensOf implements Registry.
func (r *PostgresRegistry) TokensOf(ctx context.Context, chapterID uuid.UUID, owner string) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT token_id FROM tokens
		 WHERE chapter_id = $1 AND owner = $2
		 ORDER BY token_id ASC`,
		chapterID, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count implements Registry.
func (r *PostgresRegistry) Count(ctx context.Context, chapterID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tokens WHERE chapter_id = $1`, chapterID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}
