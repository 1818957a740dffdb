package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity is the request-scoped authenticated identity derived from a
// verified bearer token. It is the sole authorization input for handlers.
type Identity struct {
	UserID string
}

// TokenVerifier validates a bearer token and returns the authenticated subject.
type TokenVerifier interface {
	VerifyToken(token string) (subject string, err error)
}

// AdminChecker reports whether a user id carries admin capability.
type AdminChecker interface {
	IsAdmin(userID string) bool
}

// AllowList is an AdminChecker backed by a configured set of user ids.
type AllowList map[string]struct{}

func NewAllowList(ids []string) AllowList {
	a := make(AllowList, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

func (a AllowList) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	_, ok := a[userID]
	return ok
}

// Auth returns a Gin middleware that verifies Bearer tokens using the provided
// verifier and attaches the resulting Identity to the request context. Every
// request is authenticated independently from its token; there is no
// server-side session state.
func Auth(ver TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		subject, err := ver.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		c.Set(identityKey, Identity{UserID: subject})
		c.Next()
	}
}

// RequireAdmin refuses the request with 403 unless the authenticated identity
// passes the admin check. Must run after Auth.
func RequireAdmin(check AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !check.IsAdmin(id.UserID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you are not an admin"})
			return
		}
		c.Next()
	}
}

// IdentityFrom extracts the authenticated identity set by Auth.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
