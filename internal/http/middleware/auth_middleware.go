package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gemstone-market/identity/domain"
)

// Context keys set by AuthMiddleware
const (
	ContextAccountID = "account_id"
	ContextEmail     = "email"
	ContextRoles     = "roles"
)

// AuthMiddleware authenticates the bearer access token. It never touches the
// store; revocation takes effect when the access token expires.
func AuthMiddleware(tokens domain.TokenCodec) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required", "missing_token")
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") || tokenParts[1] == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format", "malformed_header")
			return
		}

		result := tokens.Verify(tokenParts[1], domain.AccessToken)
		if !result.Valid {
			switch result.Reason {
			case "expired":
				abort(c, http.StatusUnauthorized, "Token expired", "token_expired")
			default:
				abort(c, http.StatusUnauthorized, "Invalid token", "invalid_token")
			}
			return
		}

		c.Set(ContextAccountID, result.Claims.AccountID)
		c.Set(ContextEmail, result.Claims.Email)
		c.Set(ContextRoles, result.Claims.Roles)
		c.Next()
	})
}

// AccountID returns the authenticated account id
func AccountID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextAccountID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}
