package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// AuthHandlers handles credential and session HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
	log     zerolog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, log zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc, log: log}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest represents a password reset with a token
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ChangePasswordRequest represents a password change by the account owner
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

var errPasswordMismatch = errors.New("passwords do not match")

// Register handles account registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	account, err := h.authSvc.Register(c.Request.Context(), domain.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"message": "Account registered. Check your email to verify your address.",
		"user_id": account.ID,
	})
}

// Login handles password login. Accounts with two-factor enabled receive a
// challenge instead of tokens.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if result.MFARequired {
		respondData(c, http.StatusOK, gin.H{
			"mfa_required": true,
			"challenge_id": result.ChallengeID,
		})
		return
	}
	respondData(c, http.StatusOK, tokenPairView(result.Tokens))
}

// Refresh handles refresh token rotation
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	pair, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrAccountInactive) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token", "code": "invalid_token"})
			return
		}
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, tokenPairView(pair))
}

// Logout revokes the caller's refresh token
func (h *AuthHandlers) Logout(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), accountID); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// VerifyEmail consumes an email verification token from the link
func (h *AuthHandlers) VerifyEmail(c *gin.Context) {
	if err := h.authSvc.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// ResendVerification sends a fresh verification email to the caller
func (h *AuthHandlers) ResendVerification(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	if err := h.authSvc.ResendVerification(c.Request.Context(), accountID); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Verification email sent"})
}

// ForgotPassword always answers the same way so callers cannot probe which
// emails are registered.
func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	_ = h.authSvc.RequestPasswordReset(c.Request.Context(), req.Email)
	respondData(c, http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Password != req.ConfirmPassword {
		respondBindError(c, errPasswordMismatch)
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// ChangePassword changes the caller's password
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		respondBindError(c, errPasswordMismatch)
		return
	}

	err := h.authSvc.ChangePassword(c.Request.Context(), accountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		// a wrong current password is a bad request here, not a failed login
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect", "code": "invalid_credentials"})
			return
		}
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Me returns the caller's profile
func (h *AuthHandlers) Me(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	profile, err := h.authSvc.Profile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, newAccountView(profile.Account, profile.Roles))
}
