package chapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a chapter is not found in the database.
var ErrNotFound = errors.New("chapter not found")

// Repository provides chapter persistence against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new chapter Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new chapter.
func (r *Repository) Create(ctx context.Context, c *Chapter) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO chapters (
			id, slug, title, capacity, unit_price,
			min_word_len, max_word_len, punctuation, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Slug, c.Title, c.Capacity, c.UnitPrice.String(),
		c.MinWordLen, c.MaxWordLen, c.Punctuation, c.CreatedAt,
	)
	return err
}

// GetBySlug retrieves a chapter by its public slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Chapter, error) {
	return r.scanOne(ctx, `SELECT * FROM chapters WHERE slug = $1`, slug)
}

// GetByID retrieves a chapter by its internal UUID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Chapter, error) {
	return r.scanOne(ctx, `SELECT * FROM chapters WHERE id = $1`, id)
}

// List returns chapters, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Chapter, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT * FROM chapters ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// scanOne executes a query returning a single chapter row.
func (r *Repository) scanOne(ctx context.Context, query string, args ...any) (*Chapter, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scan(rows)
}

// scan reads a single chapter from a pgx.Rows cursor.
// Column order matches the chapters table definition.
func scan(rows pgx.Rows) (*Chapter, error) {
	var (
		c     Chapter
		price string
	)
	err := rows.Scan(
		&c.ID, &c.Slug, &c.Title, &c.Capacity, &price,
		&c.MinWordLen, &c.MaxWordLen, &c.Punctuation, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse unit price %q: %w", price, err)
	}
	return &c, nil
}
