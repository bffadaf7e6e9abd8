package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gemstone-market/identity/domain"
)

// AuthMW wraps the token codec for middleware
type AuthMW struct {
	tokens domain.TokenCodec
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokens domain.TokenCodec) *AuthMW {
	return &AuthMW{tokens: tokens}
}

// WithJWT returns the JWT middleware function
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.tokens)
}
