package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/http/middleware"
)

// errorMapping is the HTTP shape of a domain error
type errorMapping struct {
	status  int
	message string
	code    string
}

var errorMappings = []struct {
	err error
	errorMapping
}{
	{domain.ErrInvalidInput, errorMapping{http.StatusBadRequest, "Invalid request", "invalid_input"}},
	{domain.ErrWeakPassword, errorMapping{http.StatusBadRequest, "Password must be at least 8 characters and contain a letter and a digit", "weak_password"}},
	{domain.ErrInvalidCredentials, errorMapping{http.StatusUnauthorized, "Invalid credentials", "invalid_credentials"}},
	{domain.ErrAccountInactive, errorMapping{http.StatusForbidden, "Account is inactive", "account_inactive"}},
	{domain.ErrForbidden, errorMapping{http.StatusForbidden, "Access denied", "forbidden"}},
	{domain.ErrConflict, errorMapping{http.StatusConflict, "Resource already exists", "conflict"}},
	{domain.ErrAlreadyVerified, errorMapping{http.StatusConflict, "Email already verified", "already_verified"}},
	{domain.ErrIllegalTransition, errorMapping{http.StatusConflict, "Status change not allowed", "illegal_transition"}},
	{domain.ErrInvalidToken, errorMapping{http.StatusBadRequest, "Invalid or expired token", "invalid_token"}},
	{domain.ErrRateLimited, errorMapping{http.StatusTooManyRequests, "Too many requests, try again later", "rate_limited"}},
	{domain.ErrInvalidMFACode, errorMapping{http.StatusBadRequest, "Invalid verification code", "invalid_mfa_code"}},
	{domain.ErrMFAAlreadyEnabled, errorMapping{http.StatusConflict, "Two-factor authentication already enabled", "mfa_already_enabled"}},
	{domain.ErrMFANotEnabled, errorMapping{http.StatusBadRequest, "Two-factor authentication not enabled", "mfa_not_enabled"}},
	{domain.ErrNotFound, errorMapping{http.StatusNotFound, "Resource not found", "not_found"}},
}

// respondError writes the error body for err. Unknown errors become a 500
// without internals and are logged.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.message, "code": m.code})
			return
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal_error"})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// currentAccount returns the authenticated account id or writes a 401
func currentAccount(c *gin.Context) (uint, bool) {
	id, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "missing_token"})
	}
	return id, ok
}

// accountView is the public representation of an account
type accountView struct {
	ID               uint       `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Status           string     `json:"status"`
	EmailVerified    bool       `json:"email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	Roles            []string   `json:"roles,omitempty"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newAccountView(a *domain.Account, roles []string) accountView {
	return accountView{
		ID:               a.ID,
		Email:            a.Email,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Phone:            a.Phone,
		Status:           string(a.Status),
		EmailVerified:    a.EmailVerified,
		TwoFactorEnabled: a.TwoFactorEnabled,
		Roles:            roles,
		LastLoginAt:      a.LastLoginAt,
		CreatedAt:        a.CreatedAt,
	}
}

func tokenPairView(pair *domain.TokenPair) gin.H {
	return gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    pair.ExpiresIn,
	}
}
