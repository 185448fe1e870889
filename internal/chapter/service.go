package chapter

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"github.com/prologue-labs/storyledger/internal/minting"
	"github.com/prologue-labs/storyledger/internal/notify"
	"github.com/prologue-labs/storyledger/internal/wordledger"
	"github.com/prologue-labs/storyledger/pkg/wordpolicy"
)

// repo is the persistence interface for the chapter service.
// *Repository satisfies this interface.
type repo interface {
	Create(ctx context.Context, c *Chapter) error
	GetBySlug(ctx context.Context, slug string) (*Chapter, error)
	List(ctx context.Context, limit, offset int) ([]*Chapter, error)
}

// LedgerFactory builds the ledger backing one chapter. The production
// wiring returns a PostgresLedger; tests return a MemoryLedger.
type LedgerFactory func(cfg wordledger.Config) wordledger.Ledger

// Notifier fans out append events to external observers.
// *notify.Service satisfies this interface.
type Notifier interface {
	Dispatch(ctx context.Context, eventType string, payload map[string]string)
}

// AppendRecorder is an optional callback for recording admitted appends.
type AppendRecorder func()

// Service contains the business logic for chapters and fronts every ledger
// operation. It holds one ledger handle per chapter, created lazily.
type Service struct {
	repo     repo
	ledgers  LedgerFactory
	registry minting.Registry // nil = no token lookups
	notifier Notifier         // nil = no append notifications
	onAppend AppendRecorder   // nil = no metrics
	logger   *zap.Logger

	mu   sync.Mutex
	open map[uuid.UUID]wordledger.Ledger
}

// NewService creates a chapter Service. registry and notifier may each be
// nil to disable that feature.
func NewService(r repo, ledgers LedgerFactory, registry minting.Registry, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     r,
		ledgers:  ledgers,
		registry: registry,
		notifier: notifier,
		logger:   logger,
		open:     make(map[uuid.UUID]wordledger.Ledger),
	}
}

// SetAppendRecorder configures the metrics callback invoked once per
// admitted append.
func (s *Service) SetAppendRecorder(fn AppendRecorder) {
	s.onAppend = fn
}

// Create validates and persists a new chapter.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Chapter, error) {
	if err := ValidateSlug(req.Slug); err != nil {
		return nil, err
	}
	if req.Capacity < 1 {
		return nil, &ErrValidation{Msg: "capacity must be at least 1"}
	}

	price := decimal.Zero
	if req.UnitPrice != "" {
		var err error
		price, err = decimal.NewFromString(req.UnitPrice)
		if err != nil || price.IsNegative() {
			return nil, &ErrValidation{Msg: "unit_price must be a non-negative decimal"}
		}
	}

	// Absent policy fields fall back to the default word policy.
	def := wordpolicy.Default()
	minLen, maxLen := req.MinWordLen, req.MaxWordLen
	if minLen == 0 {
		minLen = def.MinLen
	}
	if maxLen == 0 {
		maxLen = def.MaxLen
	}
	punct := def.Punctuation
	if req.Punctuation != nil {
		punct = *req.Punctuation
	}
	if _, err := wordpolicy.New(minLen, maxLen, punct); err != nil {
		return nil, &ErrValidation{Msg: err.Error()}
	}

	c := &Chapter{
		Slug:        req.Slug,
		Title:       req.Title,
		Capacity:    req.Capacity,
		UnitPrice:   price,
		MinWordLen:  minLen,
		MaxWordLen:  maxLen,
		Punctuation: punct,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}

	s.logger.Info("chapter created",
		zap.String("slug", c.Slug),
		zap.Int("capacity", c.Capacity),
		zap.String("unit_price", c.UnitPrice.String()),
	)
	return c, nil
}

// Get returns a chapter by slug.
func (s *Service) Get(ctx context.Context, slug string) (*Chapter, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// List returns chapters, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Chapter, error) {
	return s.repo.List(ctx, limit, offset)
}

// ledgerFor returns the ledger handle for a chapter, creating it on first
// use. Handles are cached so an in-memory ledger keeps its state.
func (s *Service) ledgerFor(c *Chapter) wordledger.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.open[c.ID]
	if !ok {
		l = s.ledgers(c.LedgerConfig())
		s.open[c.ID] = l
	}
	return l
}

// Append admits one word into a chapter's ledger and notifies observers.
// All rejections surface synchronously to the caller; nothing is retried.
func (s *Service) Append(ctx context.Context, slug, author, content string, payment decimal.Decimal) (*wordledger.Entry, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledgerFor(c).Append(ctx, author, content, payment)
	if err != nil {
		return nil, err
	}

	s.logger.Info("word appended",
		zap.String("chapter", c.Slug),
		zap.Int("idx", entry.Index),
		zap.String("author", entry.Author),
	)

	if s.onAppend != nil {
		s.onAppend()
	}

	// The stored entry is the source of truth; the notification is a
	// convenience channel dispatched only after the append committed.
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, notify.EventWordAppended, map[string]string{
			"chapter":        c.Slug,
			"sequence_index": strconv.Itoa(entry.Index),
			"content":        entry.Content,
			"author":         entry.Author,
		})

		// The final admitted word closes the chapter for good.
		if entry.Index == c.Capacity-1 {
			s.notifier.Dispatch(ctx, notify.EventChapterComplete, map[string]string{
				"chapter":    c.Slug,
				"word_count": strconv.Itoa(c.Capacity),
			})
		}
	}

	return entry, nil
}

// Entry returns one word record by sequence index.
func (s *Service) Entry(ctx context.Context, slug string, index int) (*wordledger.Entry, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.ledgerFor(c).Get(ctx, index)
}

// Segment returns up to count word contents starting at start.
func (s *Service) Segment(ctx context.Context, slug string, start, count int) ([]string, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.ledgerFor(c).Segment(ctx, start, count)
}

// Status reports a chapter's entry count and whether it is complete.
func (s *Service) Status(ctx context.Context, slug string) (count int, complete bool, err error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return 0, false, err
	}
	l := s.ledgerFor(c)
	if count, err = l.Len(ctx); err != nil {
		return 0, false, err
	}
	if complete, err = l.Complete(ctx); err != nil {
		return 0, false, err
	}
	return count, complete, nil
}

// FullText returns the chapter's words joined with single spaces.
// Diagnostic read path; cost grows with the ledger.
func (s *Service) FullText(ctx context.Context, slug string) (string, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.ledgerFor(c).FullText(ctx)
}

// TokenOwner returns the owner address of the token minted for a word.
func (s *Service) TokenOwner(ctx context.Context, slug string, tokenID int) (string, error) {
	if s.registry == nil {
		return "", minting.ErrTokenNotFound
	}
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.registry.OwnerOf(ctx, c.ID, tokenID)
}

// TokensOf returns the token ids minted to an owner within a chapter.
func (s *Service) TokensOf(ctx context.Context, slug, owner string) ([]int, error) {
	if s.registry == nil {
		return nil, nil
	}
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.registry.TokensOf(ctx, c.ID, owner)
}
