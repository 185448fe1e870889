package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prologue-labs/storyledger/internal/identity"
)

// AuthHandler issues author bearer tokens. Issuance is admin-gated: there
// is no on-line signature challenge, so the operator vouches for the
// address-to-person binding out of band.
type AuthHandler struct {
	authorTokens *identity.AuthorTokenIssuer
	admin        *identity.AdminGate
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authorTokens *identity.AuthorTokenIssuer, admin *identity.AdminGate, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authorTokens: authorTokens, admin: admin, logger: logger}
}

// Register registers the auth routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/author", h.admin.RequireAdmin(), h.IssueAuthorToken)
}

// IssueAuthorToken handles POST /auth/author.
func (h *AuthHandler) IssueAuthorToken(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Name    string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authorTokens.Issue(req.Address, req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	address, _ := identity.NormalizeAddress(req.Address)
	h.logger.Info("author token issued", zap.String("address", address))

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"address": address,
	})
}
