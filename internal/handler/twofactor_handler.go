package handler

import (
	"net/http"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// TwoFactorHandler handles TOTP enrollment, login challenges and disabling
type TwoFactorHandler struct {
	twoFactorService service.TwoFactorService
}

// NewTwoFactorHandler creates a new two-factor handler
func NewTwoFactorHandler(twoFactorService service.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{
		twoFactorService: twoFactorService,
	}
}

// Setup generates a new TOTP secret for the user. 2FA stays disabled until
// the first code is confirmed via VerifySetup.
func (h *TwoFactorHandler) Setup(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	setup, err := h.twoFactorService.InitiateSetup(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TwoFactorSetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
	})
}

// VerifySetup confirms the first TOTP code, enables 2FA and returns the
// backup codes. The codes are shown exactly once.
func (h *TwoFactorHandler) VerifySetup(c *gin.Context) {
	var req dto.TwoFactorVerifySetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	userID := c.GetString(ContextUserID)

	codes, err := h.twoFactorService.ConfirmSetup(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TwoFactorVerifySetupResponse{
		Message:     "Two-factor authentication enabled",
		BackupCodes: codes,
	})
}

// VerifyLogin completes a 2FA login challenge. The caller authenticates with
// the pending token from the first login step; a TOTP code or an unused
// backup code upgrades it to a full session.
func (h *TwoFactorHandler) VerifyLogin(c *gin.Context) {
	var req dto.TwoFactorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	userID := c.GetString(ContextUserID)

	result, err := h.twoFactorService.VerifyLogin(c.Request.Context(), userID, req.Code, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	setRefreshCookie(c, result.Pair.RefreshToken, result.RefreshExpiresIn)

	c.JSON(http.StatusOK, authResponse(result))
}

// Disable turns off 2FA. Only a live TOTP code is accepted, not a backup
// code; clears the secret and deletes remaining backup codes.
func (h *TwoFactorHandler) Disable(c *gin.Context) {
	var req dto.TwoFactorDisableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	userID := c.GetString(ContextUserID)

	if err := h.twoFactorService.Disable(c.Request.Context(), userID, req.Code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Two-factor authentication disabled",
	})
}
