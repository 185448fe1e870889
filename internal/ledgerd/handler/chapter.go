// Package handler exposes the chapter ledger over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prologue-labs/storyledger/internal/chapter"
	"github.com/prologue-labs/storyledger/internal/identity"
	"github.com/prologue-labs/storyledger/internal/minting"
	"github.com/prologue-labs/storyledger/internal/wordledger"
	"github.com/prologue-labs/storyledger/pkg/wordpolicy"
)

// ChapterHandler handles HTTP requests for chapters and their ledgers.
type ChapterHandler struct {
	svc          *chapter.Service
	authorTokens *identity.AuthorTokenIssuer
	admin        *identity.AdminGate
	logger       *zap.Logger
}

// NewChapterHandler creates a new ChapterHandler.
func NewChapterHandler(svc *chapter.Service, authorTokens *identity.AuthorTokenIssuer, admin *identity.AdminGate, logger *zap.Logger) *ChapterHandler {
	return &ChapterHandler{svc: svc, authorTokens: authorTokens, admin: admin, logger: logger}
}

// Register registers all chapter routes on the given router group.
func (h *ChapterHandler) Register(rg *gin.RouterGroup) {
	chapters := rg.Group("/chapters")
	{
		chapters.POST("", h.admin.RequireAdmin(), h.CreateChapter)
		chapters.GET("", h.ListChapters)
		chapters.GET("/:slug", h.GetChapter)
		chapters.POST("/:slug/words", identity.RequireAuthor(h.authorTokens), h.AppendWord)
		chapters.GET("/:slug/words", h.GetSegment)
		chapters.GET("/:slug/words/:idx", h.GetWord)
		chapters.GET("/:slug/status", h.GetStatus)
		chapters.GET("/:slug/text", h.GetText)
		chapters.GET("/:slug/tokens", h.ListTokens)
		chapters.GET("/:slug/tokens/:idx", h.GetTokenOwner)
	}
}

// writeLedgerError maps domain rejections onto HTTP statuses. Every
// rejection class gets a distinct status so clients can react without
// parsing messages.
func (h *ChapterHandler) writeLedgerError(c *gin.Context, err error) {
	var valErr *chapter.ErrValidation
	switch {
	case errors.Is(err, chapter.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
	case errors.Is(err, wordledger.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, wordledger.ErrInsufficientPayment):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, wordpolicy.ErrInvalidLength), errors.Is(err, wordpolicy.ErrInvalidCharacter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wordledger.ErrIndexOutOfBounds):
		c.JSON(http.StatusRequestedRangeNotSatisfiable, gin.H{"error": err.Error()})
	case errors.Is(err, minting.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg})
	default:
		h.logger.Error("ledger operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CreateChapter handles POST /chapters — deploys a new chapter ledger.
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	var req chapter.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chapter": ch})
}

// ListChapters handles GET /chapters — returns a paginated chapter list.
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	chapters, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list chapters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chapters"})
		return
	}
	if chapters == nil {
		chapters = []*chapter.Chapter{}
	}

	c.JSON(http.StatusOK, gin.H{"chapters": chapters, "count": len(chapters)})
}

// GetChapter handles GET /chapters/:slug.
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ch, err := h.svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapter": ch})
}

// AppendWord handles POST /chapters/:slug/words — admits one word.
// The author address comes exclusively from the verified bearer token,
// never from the request body.
func (h *ChapterHandler) AppendWord(c *gin.Context) {
	claims := identity.AuthorClaimsFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "author authentication required"})
		return
	}

	var req chapter.AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := decimal.NewFromString(req.Payment)
	if err != nil || payment.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment must be a non-negative decimal"})
		return
	}

	entry, err := h.svc.Append(c.Request.Context(), c.Param("slug"), claims.Address, req.Content, payment)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sequence_index": entry.Index,
		"entry":          entry,
	})
}

// GetSegment handles GET /chapters/:slug/words?start=&count=.
func (h *ChapterHandler) GetSegment(c *gin.Context) {
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an integer"})
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "-1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
		return
	}

	words, err := h.svc.Segment(c.Request.Context(), c.Param("slug"), start, count)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"start": start, "count": len(words), "words": words})
}

// GetWord handles GET /chapters/:slug/words/:idx — one entry plus the
// owner of its paired token.
func (h *ChapterHandler) GetWord(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	slug := c.Param("slug")
	entry, err := h.svc.Entry(c.Request.Context(), slug, idx)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}

	resp := gin.H{"entry": entry}
	if owner, err := h.svc.TokenOwner(c.Request.Context(), slug, idx); err == nil {
		resp["token_owner"] = owner
	}
	c.JSON(http.StatusOK, resp)
}

// GetStatus handles GET /chapters/:slug/status.
func (h *ChapterHandler) GetStatus(c *gin.Context) {
	count, complete, err := h.svc.Status(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"word_count": count, "complete": complete})
}

// GetText handles GET /chapters/:slug/text. Response size grows with the
// ledger; this is a verification aid, not a primary read path.
func (h *ChapterHandler) GetText(c *gin.Context) {
	text, err := h.svc.FullText(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// GetTokenOwner handles GET /chapters/:slug/tokens/:idx.
func (h *ChapterHandler) GetTokenOwner(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token id must be an integer"})
		return
	}

	owner, err := h.svc.TokenOwner(c.Request.Context(), c.Param("slug"), idx)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_id": idx, "owner": owner})
}

// ListTokens handles GET /chapters/:slug/tokens?owner= — the token ids
// minted to one owner within the chapter.
func (h *ChapterHandler) ListTokens(c *gin.Context) {
	owner, err := identity.NormalizeAddress(c.Query("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter must be an account address"})
		return
	}

	tokens, err := h.svc.TokensOf(c.Request.Context(), c.Param("slug"), owner)
	if err != nil {
		h.writeLedgerError(c, err)
		return
	}
	if tokens == nil {
		tokens = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "tokens": tokens, "count": len(tokens)})
}
