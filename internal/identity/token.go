// Package identity issues and verifies the bearer tokens that bind an
// author's account address to ledger append calls, and gates admin-only
// endpoints behind a bcrypt-hashed shared secret.
package identity

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ctxAuthorClaims is the gin context key the verified claims are stored under.
const ctxAuthorClaims = "storyledger_author_claims"

var addressRe = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NormalizeAddress lowercases and validates an account address
// (0x-prefixed, 40 hex digits).
func NormalizeAddress(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if !addressRe.MatchString(addr) {
		return "", fmt.Errorf("invalid account address %q", addr)
	}
	return addr, nil
}

// AuthorClaims are the JWT claims for an author session token.
type AuthorClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"` // always "author"
}

// AuthorTokenIssuer issues and verifies author session JWTs, signed with
// an HMAC server secret.
type AuthorTokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewAuthorTokenIssuer creates an AuthorTokenIssuer.
//
//	issuerURL — the "iss" claim value; matches the service's base URL.
//	ttl       — token lifetime (default: 24 hours).
func NewAuthorTokenIssuer(secret []byte, issuerURL string, ttl time.Duration) *AuthorTokenIssuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &AuthorTokenIssuer{secret: secret, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed author token for a normalized address.
func (a *AuthorTokenIssuer) Issue(address, name string) (string, error) {
	address, err := NormalizeAddress(address)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := AuthorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        uuid.New().String(),
		},
		Address: address,
		Name:    name,
		Type:    "author",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign author token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an author token, returning its claims.
func (a *AuthorTokenIssuer) Verify(tokenStr string) (*AuthorClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&AuthorClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return a.secret, nil
		},
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify author token: %w", err)
	}
	claims, ok := token.Claims.(*AuthorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid author token claims")
	}
	if claims.Type != "author" {
		return nil, fmt.Errorf("not an author session token")
	}
	return claims, nil
}

// RequireAuthor returns a gin middleware that rejects requests without a
// valid author bearer token and injects the claims into the context.
func RequireAuthor(issuer *AuthorTokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "author token required"})
			return
		}
		claims, err := issuer.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid author token"})
			return
		}
		c.Set(ctxAuthorClaims, claims)
		c.Next()
	}
}

// AuthorClaimsFromCtx returns the verified author claims injected by
// RequireAuthor, or nil when the request carried no valid token.
func AuthorClaimsFromCtx(c *gin.Context) *AuthorClaims {
	v, ok := c.Get(ctxAuthorClaims)
	if !ok {
		return nil
	}
	claims, ok := v.(*AuthorClaims)
	if !ok {
		return nil
	}
	return claims
}
