package handler

import (
	"errors"
	"net/http"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// respondError translates the service error taxonomy into a stable HTTP
// status plus machine-readable code. Anything outside the taxonomy is an
// internal error; raw storage and signing details never reach the caller.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrAccountNotVerified):
		status, code = http.StatusForbidden, "account_not_verified"
	case errors.Is(err, service.ErrAccountSuspended):
		status, code = http.StatusForbidden, "account_suspended"
	case errors.Is(err, service.ErrTokenInvalid):
		status, code = http.StatusUnauthorized, "token_invalid"
	case errors.Is(err, service.ErrTokenExpired):
		status, code = http.StatusUnauthorized, "token_expired"
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		status, code = http.StatusConflict, "token_already_used"
	case errors.Is(err, service.ErrTwoFactorInvalidCode):
		status, code = http.StatusUnauthorized, "two_factor_invalid_code"
	case errors.Is(err, service.ErrTwoFactorNotEnabled):
		status, code = http.StatusBadRequest, "two_factor_not_enabled"
	case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		status, code = http.StatusConflict, "two_factor_already_enabled"
	case errors.Is(err, service.ErrOAuthConflict):
		status, code = http.StatusConflict, "oauth_conflict"
	case errors.Is(err, service.ErrPasswordReused):
		status, code = http.StatusBadRequest, "password_reused"
	case errors.Is(err, service.ErrEmailAlreadyExists):
		status, code = http.StatusConflict, "email_exists"
	case errors.Is(err, service.ErrUsernameAlreadyExists):
		status, code = http.StatusConflict, "username_exists"
	case errors.Is(err, service.ErrUnsupportedProvider):
		status, code = http.StatusNotFound, "unsupported_provider"
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	}

	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_failed",
		Message: err.Error(),
	})
}
