package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// MFAHandlers handles second-factor enrollment and challenges
type MFAHandlers struct {
	mfaSvc domain.MFAService
	log    zerolog.Logger
}

// NewMFAHandlers creates new MFA handlers
func NewMFAHandlers(mfaSvc domain.MFAService, log zerolog.Logger) *MFAHandlers {
	return &MFAHandlers{mfaSvc: mfaSvc, log: log}
}

// MFACodeRequest carries a one-time code
type MFACodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// MFAVerifyRequest answers a login challenge
type MFAVerifyRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// Setup starts enrollment and returns the secret to scan
func (h *MFAHandlers) Setup(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	enrollment, err := h.mfaSvc.BeginEnroll(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"qr_code_url":      enrollment.QRCodeDataURL,
		"secret":           enrollment.Secret,
		"provisioning_uri": enrollment.ProvisioningURI,
	})
}

// ConfirmSetup enables two-factor authentication with a valid code
func (h *MFAHandlers) ConfirmSetup(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req MFACodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.mfaSvc.ConfirmEnroll(c.Request.Context(), accountID, req.Code); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Two-factor authentication enabled"})
}

// Verify completes a login challenge
func (h *MFAHandlers) Verify(c *gin.Context) {
	var req MFAVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.mfaSvc.Challenge(c.Request.Context(), req.ChallengeID, req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, tokenPairView(result.Tokens))
}

// Disable turns two-factor authentication off with a valid code
func (h *MFAHandlers) Disable(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req MFACodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.mfaSvc.Disable(c.Request.Context(), accountID, req.Code); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Two-factor authentication disabled"})
}
