package acceptance

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/utils"
)

// enrollTwoFactor runs setup and confirmation and returns the secret plus
// the one-time backup codes
func (s *Suite) enrollTwoFactor(accessToken string) (string, []string) {
	s.T().Helper()

	setupResp := s.doAuthed("POST", "/api/v1/auth/2fa/setup", accessToken, nil)
	defer setupResp.Body.Close()
	s.Require().Equal(http.StatusOK, setupResp.StatusCode)

	var setup dto.TwoFactorSetupResponse
	s.Require().NoError(json.NewDecoder(setupResp.Body).Decode(&setup))
	s.Require().NotEmpty(setup.Secret)
	s.Require().Contains(setup.ProvisioningURI, "otpauth://totp/")

	code, err := utils.GenerateTOTPCode(setup.Secret, time.Now())
	s.Require().NoError(err)

	confirmResp := s.doAuthed("POST", "/api/v1/auth/2fa/verify-setup", accessToken,
		dto.TwoFactorVerifySetupRequest{Code: code})
	defer confirmResp.Body.Close()
	s.Require().Equal(http.StatusOK, confirmResp.StatusCode)

	var confirm dto.TwoFactorVerifySetupResponse
	s.Require().NoError(json.NewDecoder(confirmResp.Body).Decode(&confirm))
	s.Require().Len(confirm.BackupCodes, 10)

	return setup.Secret, confirm.BackupCodes
}

func (s *Suite) TestTwoFactor_EnrollmentAndLogin() {
	s.registerVerified("alice", "twofa@example.com", "Password123")
	authResp, _ := s.login("twofa@example.com", "Password123")

	secret, _ := s.enrollTwoFactor(authResp.AccessToken)

	// Login now stops at the challenge: pending token, no refresh cookie.
	challengeResp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "twofa@example.com",
		Password: "Password123",
	})
	defer challengeResp.Body.Close()
	s.Equal(http.StatusOK, challengeResp.StatusCode)

	var challenge dto.AuthResponse
	s.Require().NoError(json.NewDecoder(challengeResp.Body).Decode(&challenge))
	s.True(challenge.RequiresTwoFactor)
	s.NotEmpty(challenge.AccessToken)
	s.Nil(refreshCookie(challengeResp.Cookies()), "No refresh cookie before the challenge completes")

	// Completing the challenge yields a full session.
	code, err := utils.GenerateTOTPCode(secret, time.Now())
	s.Require().NoError(err)

	verifyResp := s.doAuthed("POST", "/api/v1/auth/2fa/verify-login", challenge.AccessToken,
		dto.TwoFactorLoginRequest{Code: code})
	defer verifyResp.Body.Close()
	s.Equal(http.StatusOK, verifyResp.StatusCode)

	var full dto.AuthResponse
	s.Require().NoError(json.NewDecoder(verifyResp.Body).Decode(&full))
	s.False(full.RequiresTwoFactor)
	s.NotEmpty(full.AccessToken)
	s.NotNil(refreshCookie(verifyResp.Cookies()))
}

func (s *Suite) TestTwoFactor_WrongCodeRejected() {
	s.registerVerified("alice", "twofa-wrong@example.com", "Password123")
	authResp, _ := s.login("twofa-wrong@example.com", "Password123")
	s.enrollTwoFactor(authResp.AccessToken)

	challengeResp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "twofa-wrong@example.com",
		Password: "Password123",
	})
	defer challengeResp.Body.Close()

	var challenge dto.AuthResponse
	s.Require().NoError(json.NewDecoder(challengeResp.Body).Decode(&challenge))

	verifyResp := s.doAuthed("POST", "/api/v1/auth/2fa/verify-login", challenge.AccessToken,
		dto.TwoFactorLoginRequest{Code: "000000"})
	defer verifyResp.Body.Close()

	s.Equal(http.StatusUnauthorized, verifyResp.StatusCode)
	s.Nil(refreshCookie(verifyResp.Cookies()))
}

func (s *Suite) TestTwoFactor_BackupCodeIsSingleUse() {
	s.registerVerified("alice", "twofa-backup@example.com", "Password123")
	authResp, _ := s.login("twofa-backup@example.com", "Password123")
	_, backupCodes := s.enrollTwoFactor(authResp.AccessToken)

	loginChallenge := func() string {
		resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
			Email:    "twofa-backup@example.com",
			Password: "Password123",
		})
		defer resp.Body.Close()
		var challenge dto.AuthResponse
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&challenge))
		s.Require().True(challenge.RequiresTwoFactor)
		return challenge.AccessToken
	}

	// First use succeeds.
	pending := loginChallenge()
	verifyResp := s.doAuthed("POST", "/api/v1/auth/2fa/verify-login", pending,
		dto.TwoFactorLoginRequest{Code: backupCodes[0]})
	verifyResp.Body.Close()
	s.Equal(http.StatusOK, verifyResp.StatusCode)

	// The same code is dead afterwards.
	pending = loginChallenge()
	replayResp := s.doAuthed("POST", "/api/v1/auth/2fa/verify-login", pending,
		dto.TwoFactorLoginRequest{Code: backupCodes[0]})
	replayResp.Body.Close()
	s.Equal(http.StatusUnauthorized, replayResp.StatusCode)

	// A different code still works.
	pending = loginChallenge()
	otherResp := s.doAuthed("POST", "/api/v1/auth/2fa/verify-login", pending,
		dto.TwoFactorLoginRequest{Code: backupCodes[1]})
	otherResp.Body.Close()
	s.Equal(http.StatusOK, otherResp.StatusCode)
}

func (s *Suite) TestTwoFactor_Disable() {
	s.registerVerified("alice", "twofa-disable@example.com", "Password123")
	authResp, _ := s.login("twofa-disable@example.com", "Password123")
	secret, backupCodes := s.enrollTwoFactor(authResp.AccessToken)

	// A backup code cannot disable the protection.
	backupResp := s.doAuthed("POST", "/api/v1/auth/2fa/disable", authResp.AccessToken,
		dto.TwoFactorDisableRequest{Code: backupCodes[0]})
	backupResp.Body.Close()
	s.Equal(http.StatusUnauthorized, backupResp.StatusCode)

	code, err := utils.GenerateTOTPCode(secret, time.Now())
	s.Require().NoError(err)

	disableResp := s.doAuthed("POST", "/api/v1/auth/2fa/disable", authResp.AccessToken,
		dto.TwoFactorDisableRequest{Code: code})
	disableResp.Body.Close()
	s.Equal(http.StatusOK, disableResp.StatusCode)

	// Login is back to single-factor.
	loginResp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "twofa-disable@example.com",
		Password: "Password123",
	})
	defer loginResp.Body.Close()

	var login dto.AuthResponse
	s.Require().NoError(json.NewDecoder(loginResp.Body).Decode(&login))
	s.False(login.RequiresTwoFactor)
	s.NotNil(refreshCookie(loginResp.Cookies()))
}

func (s *Suite) TestTwoFactor_SetupRequiresAuth() {
	resp := s.doAuthed("POST", "/api/v1/auth/2fa/setup", "", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
