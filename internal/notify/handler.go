package notify

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prologue-labs/storyledger/internal/identity"
)

// Handler handles HTTP requests for append-notification subscriptions.
type Handler struct {
	svc          *Service
	authorTokens *identity.AuthorTokenIssuer
	logger       *zap.Logger
}

// NewHandler creates a new notify Handler.
func NewHandler(svc *Service, authorTokens *identity.AuthorTokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, authorTokens: authorTokens, logger: logger}
}

// Register registers all subscription routes on the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	ws := rg.Group("/webhooks")
	ws.Use(identity.RequireAuthor(h.authorTokens))
	{
		ws.POST("", h.CreateSubscription)
		ws.GET("", h.ListSubscriptions)
		ws.DELETE("/:id", h.DeleteSubscription)
	}
}

// CreateSubscription handles POST /webhooks.
func (h *Handler) CreateSubscription(c *gin.Context) {
	claims := identity.AuthorClaimsFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "author authentication required"})
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, ev := range req.Events {
		if ev != EventWordAppended && ev != EventChapterComplete {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type: " + ev})
			return
		}
	}

	sub, err := h.svc.Subscribe(c.Request.Context(), claims.Address, &req)
	if err != nil {
		h.logger.Error("create subscription", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subscription"})
		return
	}

	// The secret is returned once; it is never readable again.
	c.JSON(http.StatusCreated, gin.H{
		"subscription": sub,
		"secret":       sub.Secret,
		"note":         "Store the secret securely. It will not be shown again.",
	})
}

// ListSubscriptions handles GET /webhooks.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	claims := identity.AuthorClaimsFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "author authentication required"})
		return
	}

	subs, err := h.svc.ListByOwner(c.Request.Context(), claims.Address)
	if err != nil {
		h.logger.Error("list subscriptions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subscriptions"})
		return
	}
	if subs == nil {
		subs = []*Subscription{}
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}

// DeleteSubscription handles DELETE /webhooks/:id.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	claims := identity.AuthorClaimsFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "author authentication required"})
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription ID"})
		return
	}

	if err := h.svc.Unsubscribe(c.Request.Context(), claims.Address, subID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		h.logger.Error("delete subscription", zap.Error(err))
		c.JSON(http.StatusForbidden, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}
