package chapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prologue-labs/storyledger/internal/chapter"
	"github.com/prologue-labs/storyledger/internal/minting"
	"github.com/prologue-labs/storyledger/internal/wordledger"
)

const author = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"

// stubRepo keeps chapters in a map keyed by slug.
type stubRepo struct {
	chapters map[string]*chapter.Chapter
}

func newStubRepo() *stubRepo {
	return &stubRepo{chapters: make(map[string]*chapter.Chapter)}
}

func (r *stubRepo) Create(_ context.Context, c *chapter.Chapter) error {
	if _, exists := r.chapters[c.Slug]; exists {
		return errors.New("slug taken")
	}
	c.ID = uuid.New()
	r.chapters[c.Slug] = c
	return nil
}

func (r *stubRepo) GetBySlug(_ context.Context, slug string) (*chapter.Chapter, error) {
	c, ok := r.chapters[slug]
	if !ok {
		return nil, chapter.ErrNotFound
	}
	return c, nil
}

func (r *stubRepo) List(_ context.Context, limit, offset int) ([]*chapter.Chapter, error) {
	var out []*chapter.Chapter
	for _, c := range r.chapters {
		out = append(out, c)
	}
	return out, nil
}

// stubNotifier records every dispatched event.
type stubNotifier struct {
	events   []string
	payloads []map[string]string
}

func (n *stubNotifier) Dispatch(_ context.Context, eventType string, payload map[string]string) {
	n.events = append(n.events, eventType)
	n.payloads = append(n.payloads, payload)
}

func newService(t *testing.T) (*chapter.Service, *stubNotifier, *minting.MemoryRegistry) {
	t.Helper()
	registry := minting.NewMemoryRegistry()
	notifier := &stubNotifier{}
	factory := func(cfg wordledger.Config) wordledger.Ledger {
		return wordledger.New(cfg, registry)
	}
	svc := chapter.NewService(newStubRepo(), factory, registry, notifier, zap.NewNop())
	return svc, notifier, registry
}

func create(t *testing.T, svc *chapter.Service, slug string, capacity int, price string) *chapter.Chapter {
	t.Helper()
	c, err := svc.Create(context.Background(), &chapter.CreateRequest{
		Slug:      slug,
		Title:     "Test Chapter",
		Capacity:  capacity,
		UnitPrice: price,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", slug, err)
	}
	return c
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  chapter.CreateRequest
	}{
		{"bad slug uppercase", chapter.CreateRequest{Slug: "Prologue", Title: "t", Capacity: 10}},
		{"bad slug leading hyphen", chapter.CreateRequest{Slug: "-prologue", Title: "t", Capacity: 10}},
		{"zero capacity", chapter.CreateRequest{Slug: "prologue", Title: "t", Capacity: 0}},
		{"negative price", chapter.CreateRequest{Slug: "prologue", Title: "t", Capacity: 10, UnitPrice: "-0.01"}},
		{"garbage price", chapter.CreateRequest{Slug: "prologue", Title: "t", Capacity: 10, UnitPrice: "cheap"}},
		{"inverted word bounds", chapter.CreateRequest{Slug: "prologue", Title: "t", Capacity: 10, MinWordLen: 9, MaxWordLen: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tc.req)
			var verr *chapter.ErrValidation
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateAppliesPolicyDefaults(t *testing.T) {
	svc, _, _ := newService(t)

	c := create(t, svc, "prologue", 10, "")
	if c.MinWordLen != 1 || c.MaxWordLen != 100 {
		t.Errorf("word bounds = [%d, %d], want defaults [1, 100]", c.MinWordLen, c.MaxWordLen)
	}
	if !c.UnitPrice.IsZero() {
		t.Errorf("unit price = %s, want 0", c.UnitPrice)
	}
}

func TestAppendReturnsSequentialIndices(t *testing.T) {
	svc, _, _ := newService(t)
	create(t, svc, "prologue", 10, "0.002")
	ctx := context.Background()
	pay := decimal.RequireFromString("0.002")

	for i, word := range []string{"Once", "upon", "a", "time"} {
		entry, err := svc.Append(ctx, "prologue", author, word, pay)
		if err != nil {
			t.Fatalf("Append(%q): %v", word, err)
		}
		if entry.Index != i {
			t.Errorf("index = %d, want %d", entry.Index, i)
		}
	}
}

func TestAppendDispatchesNotification(t *testing.T) {
	svc, notifier, _ := newService(t)
	create(t, svc, "prologue", 10, "0.002")

	entry, err := svc.Append(context.Background(), "prologue", author, "Once", decimal.RequireFromString("0.002"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("dispatched %d events, want 1", len(notifier.events))
	}
	if notifier.events[0] != "word.appended" {
		t.Errorf("event = %q, want word.appended", notifier.events[0])
	}
	p := notifier.payloads[0]
	if p["chapter"] != "prologue" || p["sequence_index"] != "0" || p["content"] != entry.Content || p["author"] != author {
		t.Errorf("unexpected payload: %v", p)
	}
}

func TestFinalAppendDispatchesChapterComplete(t *testing.T) {
	svc, notifier, _ := newService(t)
	create(t, svc, "short", 2, "")
	ctx := context.Background()

	if _, err := svc.Append(ctx, "short", author, "The", decimal.Zero); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("events after first word = %v, want only word.appended", notifier.events)
	}

	if _, err := svc.Append(ctx, "short", author, "end.", decimal.Zero); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(notifier.events) != 3 {
		t.Fatalf("events after final word = %v, want word.appended then chapter.complete", notifier.events)
	}
	if notifier.events[2] != "chapter.complete" {
		t.Errorf("final event = %q, want chapter.complete", notifier.events[2])
	}
	p := notifier.payloads[2]
	if p["chapter"] != "short" || p["word_count"] != "2" {
		t.Errorf("completion payload = %v", p)
	}
}

func TestRejectedAppendDispatchesNothing(t *testing.T) {
	svc, notifier, _ := newService(t)
	create(t, svc, "prologue", 10, "0.002")

	_, err := svc.Append(context.Background(), "prologue", author, "Once", decimal.RequireFromString("0.001"))
	if !errors.Is(err, wordledger.ErrInsufficientPayment) {
		t.Fatalf("err = %v, want ErrInsufficientPayment", err)
	}
	if len(notifier.events) != 0 {
		t.Errorf("dispatched %d events after rejection, want 0", len(notifier.events))
	}
}

func TestAppendUnknownChapter(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Append(context.Background(), "missing", author, "Once", decimal.Zero)
	if !errors.Is(err, chapter.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatusTracksCompletion(t *testing.T) {
	svc, _, _ := newService(t)
	create(t, svc, "short", 2, "")
	ctx := context.Background()

	count, complete, err := svc.Status(ctx, "short")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if count != 0 || complete {
		t.Errorf("fresh chapter: count=%d complete=%v, want 0 false", count, complete)
	}

	for _, w := range []string{"The", "end."} {
		if _, err := svc.Append(ctx, "short", author, w, decimal.Zero); err != nil {
			t.Fatalf("Append(%q): %v", w, err)
		}
	}

	count, complete, err = svc.Status(ctx, "short")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if count != 2 || !complete {
		t.Errorf("full chapter: count=%d complete=%v, want 2 true", count, complete)
	}

	_, err = svc.Append(ctx, "short", author, "more", decimal.Zero)
	if !errors.Is(err, wordledger.ErrCapacityExceeded) {
		t.Errorf("append past capacity: err = %v, want ErrCapacityExceeded", err)
	}
}

func TestSegmentAndFullText(t *testing.T) {
	svc, _, _ := newService(t)
	create(t, svc, "prologue", 10, "")
	ctx := context.Background()

	for _, w := range []string{"Once", "upon", "a", "time"} {
		if _, err := svc.Append(ctx, "prologue", author, w, decimal.Zero); err != nil {
			t.Fatalf("Append(%q): %v", w, err)
		}
	}

	seg, err := svc.Segment(ctx, "prologue", 1, 2)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(seg) != 2 || seg[0] != "upon" || seg[1] != "a" {
		t.Errorf("segment = %v, want [upon a]", seg)
	}

	text, err := svc.FullText(ctx, "prologue")
	if err != nil {
		t.Fatalf("FullText: %v", err)
	}
	if text != "Once upon a time" {
		t.Errorf("text = %q", text)
	}
}

func TestTokenLookups(t *testing.T) {
	svc, _, _ := newService(t)
	create(t, svc, "prologue", 10, "")
	ctx := context.Background()

	if _, err := svc.Append(ctx, "prologue", author, "Once", decimal.Zero); err != nil {
		t.Fatalf("Append: %v", err)
	}

	owner, err := svc.TokenOwner(ctx, "prologue", 0)
	if err != nil {
		t.Fatalf("TokenOwner: %v", err)
	}
	if owner != author {
		t.Errorf("owner = %q, want %q", owner, author)
	}

	_, err = svc.TokenOwner(ctx, "prologue", 99)
	if !errors.Is(err, minting.ErrTokenNotFound) {
		t.Errorf("unminted token: err = %v, want ErrTokenNotFound", err)
	}

	tokens, err := svc.TokensOf(ctx, "prologue", author)
	if err != nil {
		t.Fatalf("TokensOf: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != 0 {
		t.Errorf("tokens = %v, want [0]", tokens)
	}
}

func TestLedgerHandleIsCached(t *testing.T) {
	registry := minting.NewMemoryRegistry()
	built := 0
	factory := func(cfg wordledger.Config) wordledger.Ledger {
		built++
		return wordledger.New(cfg, registry)
	}
	svc := chapter.NewService(newStubRepo(), factory, registry, nil, zap.NewNop())
	create(t, svc, "prologue", 10, "")
	ctx := context.Background()

	if _, err := svc.Append(ctx, "prologue", author, "Once", decimal.Zero); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := svc.Append(ctx, "prologue", author, "upon", decimal.Zero); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if built != 1 {
		t.Errorf("ledger factory ran %d times, want 1", built)
	}
}
