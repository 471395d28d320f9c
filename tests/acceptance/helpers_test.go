package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/utils"
	"github.com/google/uuid"
)

func (s *Suite) postJSON(path string, payload interface{}) *http.Response {
	s.T().Helper()

	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	resp, err := http.Post(s.BaseURL+path, "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) register(username, email, password string) *dto.UserResponse {
	s.T().Helper()

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "Registration should succeed")

	var user dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&user))
	return &user
}

// markEmailVerified flips the verification flag directly; the mailed token
// flow has its own test and everything else just needs a loggable account
func (s *Suite) markEmailVerified(email string) {
	s.T().Helper()

	result, err := s.Postgres.DB.Exec(`UPDATE users SET is_email_verified = true WHERE email = $1`, email)
	s.Require().NoError(err)
	affected, err := result.RowsAffected()
	s.Require().NoError(err)
	s.Require().EqualValues(1, affected)
}

func (s *Suite) registerVerified(username, email, password string) *dto.UserResponse {
	s.T().Helper()

	user := s.register(username, email, password)
	s.markEmailVerified(email)
	return user
}

// login returns the parsed response body plus the response cookies so tests
// can carry the refresh cookie forward
func (s *Suite) login(email, password string) (*dto.AuthResponse, []*http.Cookie) {
	s.T().Helper()

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    email,
		Password: password,
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode, "Login should succeed")

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))
	return &authResp, resp.Cookies()
}

// issueSingleUseToken plants a token row the way the mail flow would and
// returns the plaintext value a user would receive in the link
func (s *Suite) issueSingleUseToken(userID, email, kind string, ttl time.Duration) string {
	s.T().Helper()

	value, err := utils.GenerateOpaqueToken()
	s.Require().NoError(err)

	_, err = s.Postgres.DB.Exec(`
		INSERT INTO single_use_tokens (id, user_id, email, kind, token_hash, expires_at, created_at, is_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false)`,
		uuid.New().String(), userID, email, kind, utils.HashToken(value),
		time.Now().Add(ttl), time.Now(),
	)
	s.Require().NoError(err)
	return value
}

func (s *Suite) doAuthed(method, path, accessToken string, payload interface{}) *http.Response {
	s.T().Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, s.BaseURL+path, body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func refreshCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}
