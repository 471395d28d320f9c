package handler

import (
	"net/http"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/service"
	"github.com/campgrid/auth-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const stateCookieName = "oauth_state"

// OAuthHandler handles provider login redirects and callbacks
type OAuthHandler struct {
	oauthService service.OAuthService
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauthService service.OAuthService) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
	}
}

// Redirect sends the client to the provider's consent page. The CSRF state
// value is stored in a short-lived cookie and checked on callback.
func (h *OAuthHandler) Redirect(c *gin.Context) {
	provider := c.Param("provider")

	state, err := utils.GenerateOpaqueToken()
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.oauthService.AuthCodeURL(provider, state)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(stateCookieName, state, 600, "/api/v1/auth/oauth", "", true, true)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Callback exchanges the authorization code, resolves the external identity
// to an account and issues tokens through the same 2FA gating as direct login
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")

	state := c.Query("state")
	cookieState, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || state != cookieState {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_failed",
			Message: "oauth state mismatch",
		})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/api/v1/auth/oauth", "", true, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_failed",
			Message: "authorization code is required",
		})
		return
	}

	result, err := h.oauthService.HandleCallback(c.Request.Context(), provider, code, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.RequiresTwoFactor {
		setRefreshCookie(c, result.Pair.RefreshToken, result.RefreshExpiresIn)
	}

	c.JSON(http.StatusOK, authResponse(result))
}
