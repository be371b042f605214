package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// sessionTokenKey is the Gin context key holding the verified bearer token.
const sessionTokenKey = "sessionToken"

// TokenVerifier reports whether a session token is currently valid.
type TokenVerifier func(token string) bool

// BearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively; anything else yields "".
func BearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession gates a route group behind a valid admin session. Tokens
// are only accepted from the Authorization header.
func RequireSession(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !verify(token) {
			c.Header("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
			return
		}
		c.Set(sessionTokenKey, token)
		c.Next()
	}
}

// SessionToken returns the token verified by RequireSession, or "".
func SessionToken(c *gin.Context) string {
	v, _ := c.Get(sessionTokenKey)
	return asString(v)
}
