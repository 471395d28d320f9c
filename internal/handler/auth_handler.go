package handler

import (
	"net/http"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

// Cookie path covers refresh and logout so both receive the token
const refreshCookiePath = "/api/v1/auth"

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// setRefreshCookie delivers the refresh token in an httpOnly cookie; token
// delivery is a transport concern, the service layer never sees cookies.
func setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(refreshCookieName, value, maxAge, refreshCookiePath, "", true, true)
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	resp := dto.AuthResponse{
		User: dto.UserInfo{
			ID:       result.User.ID,
			Username: result.User.Username,
			Email:    result.User.Email,
			IsOwner:  result.User.IsOwner,
		},
	}

	if result.RequiresTwoFactor {
		resp.RequiresTwoFactor = true
		resp.AccessToken = result.PendingToken
		resp.TokenType = "Bearer"
		return resp
	}

	resp.AccessToken = result.Pair.AccessToken
	resp.TokenType = result.Pair.TokenType
	resp.ExpiresIn = result.Pair.ExpiresIn
	return resp
}

// Register handles user registration. The account starts unverified and no
// tokens are issued; a verification email is sent instead.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles user login. A 2FA-enabled account receives a pending token
// and no refresh cookie until the challenge completes.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.RequiresTwoFactor {
		setRefreshCookie(c, result.Pair.RefreshToken, result.RefreshExpiresIn)
	}

	c.JSON(http.StatusOK, authResponse(result))
}

// Refresh rotates the refresh token from the cookie into a new pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_failed",
			Message: "refresh token not found in cookie",
		})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	setRefreshCookie(c, result.Pair.RefreshToken, result.RefreshExpiresIn)

	c.JSON(http.StatusOK, authResponse(result))
}

// Logout blacklists the presented access token and revokes the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString(ContextUserID)
	refreshToken, _ := c.Cookie(refreshCookieName)

	err := h.authService.Logout(c.Request.Context(), userID, bearerToken(c), refreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	setRefreshCookie(c, "", -1)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// LogoutAll revokes every refresh token for the user and blacklists the
// presented access token
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	err := h.authService.LogoutAll(c.Request.Context(), userID, bearerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	setRefreshCookie(c, "", -1)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out from all sessions",
	})
}

// GetMe returns the current user's profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// AuthStatus reports whether the caller holds a valid, unrevoked access
// token. Unauthenticated callers get a 200 with authenticated=false; this
// endpoint never challenges.
func (h *AuthHandler) AuthStatus(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusOK, dto.AuthStatusResponse{Authenticated: false})
		return
	}

	claims, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, dto.AuthStatusResponse{Authenticated: false})
		return
	}

	c.JSON(http.StatusOK, dto.AuthStatusResponse{
		Authenticated: true,
		User: &dto.UserInfo{
			ID:       claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
			IsOwner:  claims.IsOwner,
		},
	})
}
