// Package client provides the StoryLedger Go SDK for reading chapters and
// appending words against a ledgerd instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Errors mapped from the service's rejection statuses. Callers match with
// errors.Is; the full server message is preserved via wrapping.
var (
	// ErrChapterComplete — the chapter ledger is at capacity (HTTP 409).
	ErrChapterComplete = errors.New("chapter is complete")

	// ErrInsufficientPayment — payment below the unit price (HTTP 402).
	ErrInsufficientPayment = errors.New("payment below unit price")

	// ErrNotFound — unknown chapter, word, or token (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrOutOfBounds — a read addressed an index past the entry count (HTTP 416).
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrUnauthorized — missing or invalid author token / admin secret (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")
)

// Chapter is a chapter record as returned by the service.
type Chapter struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Capacity    int       `json:"capacity"`
	UnitPrice   string    `json:"unit_price"`
	MinWordLen  int       `json:"min_word_len"`
	MaxWordLen  int       `json:"max_word_len"`
	Punctuation string    `json:"punctuation"`
	CreatedAt   time.Time `json:"created_at"`
}

// Entry is one admitted word record.
type Entry struct {
	Index       int       `json:"index"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Paid        string    `json:"paid"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CreateChapterRequest is the payload for CreateChapter.
type CreateChapterRequest struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Capacity    int     `json:"capacity"`
	UnitPrice   string  `json:"unit_price,omitempty"`
	MinWordLen  int     `json:"min_word_len,omitempty"`
	MaxWordLen  int     `json:"max_word_len,omitempty"`
	Punctuation *string `json:"punctuation,omitempty"`
}

// AppendResult holds the outcome of a successful append.
type AppendResult struct {
	SequenceIndex int    `json:"sequence_index"`
	Entry         *Entry `json:"entry"`
}

// Status holds a chapter's progress.
type Status struct {
	WordCount int  `json:"word_count"`
	Complete  bool `json:"complete"`
}

// Client is the StoryLedger SDK entry point.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	authorToken string
	adminSecret string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthorToken attaches an author bearer token to every request.
// Required for Append.
func WithAuthorToken(token string) Option {
	return func(c *Client) { c.authorToken = token }
}

// WithAdminSecret attaches the admin secret to every request. Required for
// CreateChapter and IssueAuthorToken.
func WithAdminSecret(secret string) Option {
	return func(c *Client) { c.adminSecret = secret }
}

// New creates a Client for the ledgerd instance at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doJSON performs one request and decodes the JSON response into out
// (when out is non-nil). Non-2xx statuses are mapped to the package's
// sentinel errors.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authorToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authorToken)
	}
	if c.adminSecret != "" {
		req.Header.Set("X-Admin-Secret", c.adminSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps an error response onto the package's sentinel errors,
// preserving the server's message.
func statusError(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusConflict:
		sentinel = ErrChapterComplete
	case http.StatusPaymentRequired:
		sentinel = ErrInsufficientPayment
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusRequestedRangeNotSatisfiable:
		sentinel = ErrOutOfBounds
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	default:
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%s: %w", msg, sentinel)
}

// CreateChapter deploys a new chapter ledger. Requires WithAdminSecret.
func (c *Client) CreateChapter(ctx context.Context, req *CreateChapterRequest) (*Chapter, error) {
	var out struct {
		Chapter *Chapter `json:"chapter"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/chapters", req, &out); err != nil {
		return nil, err
	}
	return out.Chapter, nil
}

// GetChapter fetches one chapter by slug.
func (c *Client) GetChapter(ctx context.Context, slug string) (*Chapter, error) {
	var out struct {
		Chapter *Chapter `json:"chapter"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/chapters/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return out.Chapter, nil
}

// ListChapters returns up to limit chapters starting at offset.
func (c *Client) ListChapters(ctx context.Context, limit, offset int) ([]*Chapter, error) {
	var out struct {
		Chapters []*Chapter `json:"chapters"`
	}
	path := fmt.Sprintf("/api/v1/chapters?limit=%d&offset=%d", limit, offset)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Chapters, nil
}

// Append admits one word into a chapter. Requires WithAuthorToken; the
// author address is taken from the token by the server.
func (c *Client) Append(ctx context.Context, slug, content, payment string) (*AppendResult, error) {
	req := map[string]string{"content": content, "payment": payment}
	var out AppendResult
	path := "/api/v1/chapters/" + url.PathEscape(slug) + "/words"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Segment reads up to count words starting at the given sequence index.
// count < 0 reads to the end of the ledger.
func (c *Client) Segment(ctx context.Context, slug string, start, count int) ([]string, error) {
	var out struct {
		Words []string `json:"words"`
	}
	path := fmt.Sprintf("/api/v1/chapters/%s/words?start=%d&count=%d", url.PathEscape(slug), start, count)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Words, nil
}

// Entry fetches one word record and the owner of its paired token.
func (c *Client) Entry(ctx context.Context, slug string, index int) (*Entry, string, error) {
	var out struct {
		Entry      *Entry `json:"entry"`
		TokenOwner string `json:"token_owner"`
	}
	path := "/api/v1/chapters/" + url.PathEscape(slug) + "/words/" + strconv.Itoa(index)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Entry, out.TokenOwner, nil
}

// Status reports a chapter's word count and completion.
func (c *Client) Status(ctx context.Context, slug string) (*Status, error) {
	var out Status
	path := "/api/v1/chapters/" + url.PathEscape(slug) + "/status"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FullText returns the chapter's words joined with single spaces.
func (c *Client) FullText(ctx context.Context, slug string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	path := "/api/v1/chapters/" + url.PathEscape(slug) + "/text"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// TokenOwner returns the owner address of a minted token.
func (c *Client) TokenOwner(ctx context.Context, slug string, tokenID int) (string, error) {
	var out struct {
		Owner string `json:"owner"`
	}
	path := "/api/v1/chapters/" + url.PathEscape(slug) + "/tokens/" + strconv.Itoa(tokenID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Owner, nil
}

// TokensOf returns the token ids minted to owner within a chapter.
func (c *Client) TokensOf(ctx context.Context, slug, owner string) ([]int, error) {
	var out struct {
		Tokens []int `json:"tokens"`
	}
	path := "/api/v1/chapters/" + url.PathEscape(slug) + "/tokens?owner=" + url.QueryEscape(owner)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// IssueAuthorToken obtains an author bearer token for an address.
// Requires WithAdminSecret.
func (c *Client) IssueAuthorToken(ctx context.Context, address, name string) (string, error) {
	req := map[string]string{"address": address, "name": name}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/author", req, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}
