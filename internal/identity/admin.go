package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminGate authorises admin-only endpoints (chapter creation) against a
// bcrypt hash of the shared admin secret. Only the hash lives in config;
// the plaintext secret is presented per request.
type AdminGate struct {
	secretHash []byte // bcrypt hash; empty = admin endpoints disabled
}

// NewAdminGate creates an AdminGate from a bcrypt secret hash. An empty
// hash disables all admin endpoints rather than leaving them open.
func NewAdminGate(secretHash string) *AdminGate {
	return &AdminGate{secretHash: []byte(secretHash)}
}

// HashSecret bcrypt-hashes a plaintext admin secret for storage in config.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check reports whether the presented secret matches the configured hash.
func (g *AdminGate) Check(secret string) bool {
	if len(g.secretHash) == 0 || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.secretHash, []byte(secret)) == nil
}

// RequireAdmin returns a gin middleware that rejects requests whose
// X-Admin-Secret header does not match the configured secret.
func (g *AdminGate) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Check(c.GetHeader("X-Admin-Secret")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin secret required"})
			return
		}
		c.Next()
	}
}
