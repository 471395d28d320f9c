package handler

import (
	"net/http"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles email verification and password reset flows
type AccountHandler struct {
	authService service.AuthService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService service.AuthService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
	}
}

// VerifyEmail consumes a verification token and marks the account verified
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Email verified successfully",
	})
}

// ResendVerification issues a fresh verification token. The response is the
// same whether or not the email maps to an account.
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "If the email is registered, a verification link has been sent",
	})
}

// ForgotPassword issues a password reset token. The response is the same
// whether or not the email maps to an account.
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "If the email is registered, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and sets a new password. All refresh
// tokens for the account are revoked on success.
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Password has been reset",
	})
}
