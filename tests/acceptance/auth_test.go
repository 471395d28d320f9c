package acceptance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/internal/dto"
)

func (s *Suite) TestRegister_Success() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var user dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&user))

	s.NotEmpty(user.ID)
	s.Equal("alice", user.Username)
	s.Equal("alice@example.com", user.Email)
	s.False(user.IsEmailVerified)

	// No session starts at registration.
	s.Nil(refreshCookie(resp.Cookies()), "Registration must not set a refresh cookie")
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("alice", "duplicate@example.com", "Password123")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Username: "alice2",
		Email:    "duplicate@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("email_exists", errResp.Error)
}

func (s *Suite) TestRegister_DuplicateUsername() {
	s.register("alice", "alice@example.com", "Password123")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("username_exists", errResp.Error)
}

func (s *Suite) TestRegister_InvalidEmail() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Username: "alice",
		Email:    "invalid-email",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_WeakPassword() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_BeforeVerification() {
	s.register("alice", "alice@example.com", "Password123")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("account_not_verified", errResp.Error)
}

func (s *Suite) TestLogin_Success() {
	s.registerVerified("alice", "login@example.com", "Password123")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "login@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))

	s.NotEmpty(authResp.AccessToken)
	s.Equal("Bearer", authResp.TokenType)
	s.NotZero(authResp.ExpiresIn)
	s.False(authResp.RequiresTwoFactor)
	s.Equal("login@example.com", authResp.User.Email)

	cookie := refreshCookie(resp.Cookies())
	s.Require().NotNil(cookie, "Should have refresh token cookie")
	s.True(cookie.HttpOnly)
	s.NotEmpty(cookie.Value)
}

func (s *Suite) TestLogin_InvalidCredentials() {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "WrongPassword123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("invalid_credentials", errResp.Error)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.registerVerified("alice", "wrongpass@example.com", "CorrectPassword123")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "wrongpass@example.com",
		Password: "WrongPassword123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

// A credential-stuffing run that rotates emails never repeats a per-email
// key, so the address-wide limit has to be what stops it.
func (s *Suite) TestLogin_RotatingEmailsStillIPLimited() {
	const limit = 100

	var status int
	for i := 0; i <= limit; i++ {
		resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
			Email:    fmt.Sprintf("guess-%d@example.com", i),
			Password: "Wr0ngPassword1",
		})
		status = resp.StatusCode
		resp.Body.Close()

		if i < limit {
			s.Require().Equal(http.StatusUnauthorized, status, "attempt %d should fail on credentials only", i)
		}
	}

	s.Equal(http.StatusTooManyRequests, status)
}

func (s *Suite) TestGetMe_Success() {
	s.registerVerified("alice", "getme@example.com", "Password123")
	authResp, _ := s.login("getme@example.com", "Password123")

	resp := s.doAuthed("GET", "/api/v1/auth/me", authResp.AccessToken, nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var userResp dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&userResp))

	s.NotEmpty(userResp.ID)
	s.Equal("getme@example.com", userResp.Email)
	s.True(userResp.IsEmailVerified)
	s.NotEmpty(userResp.CreatedAt)
	s.NotNil(userResp.LastLoginAt)
}

func (s *Suite) TestGetMe_NoToken() {
	resp := s.doAuthed("GET", "/api/v1/auth/me", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestGetMe_InvalidToken() {
	resp := s.doAuthed("GET", "/api/v1/auth/me", "invalid-token", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_RotatesToken() {
	s.registerVerified("alice", "refresh@example.com", "Password123")
	_, cookies := s.login("refresh@example.com", "Password123")
	cookie := refreshCookie(cookies)
	s.Require().NotNil(cookie)

	req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))
	s.NotEmpty(authResp.AccessToken)

	newCookie := refreshCookie(resp.Cookies())
	s.Require().NotNil(newCookie)
	s.NotEqual(cookie.Value, newCookie.Value, "Refresh must rotate the token")

	// Replaying the consumed token must fail.
	replay, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
	replay.AddCookie(cookie)

	replayResp, err := http.DefaultClient.Do(replay)
	s.Require().NoError(err)
	defer replayResp.Body.Close()

	s.Equal(http.StatusUnauthorized, replayResp.StatusCode)
}

func (s *Suite) TestRefresh_NoCookie() {
	req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogout_KillsAccessToken() {
	s.registerVerified("alice", "logout@example.com", "Password123")
	authResp, _ := s.login("logout@example.com", "Password123")

	resp := s.doAuthed("POST", "/api/v1/auth/logout", authResp.AccessToken, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// The blacklisted token must stop working before its natural expiry.
	meResp := s.doAuthed("GET", "/api/v1/auth/me", authResp.AccessToken, nil)
	defer meResp.Body.Close()
	s.Equal(http.StatusUnauthorized, meResp.StatusCode)
}

func (s *Suite) TestLogoutAll_RevokesEverySession() {
	s.registerVerified("alice", "logoutall@example.com", "Password123")
	first, firstCookies := s.login("logoutall@example.com", "Password123")
	_, secondCookies := s.login("logoutall@example.com", "Password123")

	resp := s.doAuthed("POST", "/api/v1/auth/logout-all", first.AccessToken, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// Neither session's refresh token survives.
	for _, cookies := range [][]*http.Cookie{firstCookies, secondCookies} {
		cookie := refreshCookie(cookies)
		s.Require().NotNil(cookie)

		req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
		req.AddCookie(cookie)

		refreshResp, err := http.DefaultClient.Do(req)
		s.Require().NoError(err)
		refreshResp.Body.Close()
		s.Equal(http.StatusUnauthorized, refreshResp.StatusCode)
	}
}

func (s *Suite) TestVerifyEmail_Flow() {
	user := s.register("alice", "verify@example.com", "Password123")
	token := s.issueSingleUseToken(user.ID, user.Email, domain.TokenKindEmailVerification, time.Hour)

	resp := s.postJSON("/api/v1/auth/verify-email", dto.VerifyEmailRequest{Token: token})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// The account can log in now.
	authResp, _ := s.login("verify@example.com", "Password123")
	s.True(authResp.User.ID != "")

	// The link is single-use.
	replay := s.postJSON("/api/v1/auth/verify-email", dto.VerifyEmailRequest{Token: token})
	defer replay.Body.Close()
	s.Equal(http.StatusConflict, replay.StatusCode)
}

func (s *Suite) TestVerifyEmail_ExpiredToken() {
	user := s.register("alice", "expired@example.com", "Password123")
	token := s.issueSingleUseToken(user.ID, user.Email, domain.TokenKindEmailVerification, -time.Minute)

	resp := s.postJSON("/api/v1/auth/verify-email", dto.VerifyEmailRequest{Token: token})
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("token_expired", errResp.Error)
}

func (s *Suite) TestForgotPassword_UnknownEmailLooksIdentical() {
	s.registerVerified("alice", "forgot@example.com", "Password123")

	known := s.postJSON("/api/v1/auth/forgot-password", dto.ForgotPasswordRequest{Email: "forgot@example.com"})
	defer known.Body.Close()
	unknown := s.postJSON("/api/v1/auth/forgot-password", dto.ForgotPasswordRequest{Email: "nobody@example.com"})
	defer unknown.Body.Close()

	s.Equal(http.StatusOK, known.StatusCode)
	s.Equal(http.StatusOK, unknown.StatusCode)
}

func (s *Suite) TestResetPassword_Flow() {
	user := s.registerVerified("alice", "reset@example.com", "Password123")
	_, cookies := s.login("reset@example.com", "Password123")
	token := s.issueSingleUseToken(user.ID, user.Email, domain.TokenKindPasswordReset, time.Hour)

	resp := s.postJSON("/api/v1/auth/reset-password", dto.ResetPasswordRequest{
		Token:    token,
		Password: "NewPassword456",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// Old password dead, new one works.
	oldLogin := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email: "reset@example.com", Password: "Password123",
	})
	oldLogin.Body.Close()
	s.Equal(http.StatusUnauthorized, oldLogin.StatusCode)

	s.login("reset@example.com", "NewPassword456")

	// The pre-reset session is revoked.
	cookie := refreshCookie(cookies)
	s.Require().NotNil(cookie)
	req, _ := http.NewRequest("POST", s.BaseURL+"/api/v1/auth/refresh", nil)
	req.AddCookie(cookie)
	refreshResp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	refreshResp.Body.Close()
	s.Equal(http.StatusUnauthorized, refreshResp.StatusCode)

	// The link is single-use.
	replay := s.postJSON("/api/v1/auth/reset-password", dto.ResetPasswordRequest{
		Token:    token,
		Password: "AnotherPass789",
	})
	defer replay.Body.Close()
	s.Equal(http.StatusConflict, replay.StatusCode)
}

func (s *Suite) TestResetPassword_RejectsRecentPassword() {
	user := s.registerVerified("alice", "reuse@example.com", "Password123")
	token := s.issueSingleUseToken(user.ID, user.Email, domain.TokenKindPasswordReset, time.Hour)

	resp := s.postJSON("/api/v1/auth/reset-password", dto.ResetPasswordRequest{
		Token:    token,
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("password_reused", errResp.Error)
}

func (s *Suite) TestAuthStatus() {
	resp, err := http.Get(s.BaseURL + "/api/v1/auth/status")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var status dto.AuthStatusResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	s.False(status.Authenticated)

	s.registerVerified("alice", "status@example.com", "Password123")
	authResp, _ := s.login("status@example.com", "Password123")

	authed := s.doAuthed("GET", "/api/v1/auth/status", authResp.AccessToken, nil)
	defer authed.Body.Close()
	s.Equal(http.StatusOK, authed.StatusCode)

	s.Require().NoError(json.NewDecoder(authed.Body).Decode(&status))
	s.True(status.Authenticated)
	s.Require().NotNil(status.User)
	s.Equal("status@example.com", status.User.Email)
}
