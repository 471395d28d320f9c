package domain

import "time"

// Token type claims carried by signed access tokens
const (
	TokenTypeAccess = "access"
)

// TokenClaims represents JWT access token claims
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsOwner   bool   `json:"is_owner"`
	TokenType string `json:"token_type"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// IsExpired checks if the token is expired
func (tc TokenClaims) IsExpired() bool {
	return time.Now().Unix() > tc.Exp
}

// SingleUseToken kinds
const (
	TokenKindEmailVerification = "email_verification"
	TokenKindPasswordReset     = "password_reset"
)

// SingleUseToken represents an email-verification or password-reset token.
// A row moves Issued -> Used exactly once, or expires untouched; used rows
// are kept as an audit trail so a replayed link can be told apart from an
// invalid one.
type SingleUseToken struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Email     string     `json:"email" db:"email"`
	Kind      string     `json:"kind" db:"kind"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	IsUsed    bool       `json:"is_used" db:"is_used"`
	UsedAt    *time.Time `json:"used_at" db:"used_at"`
}

// IsExpiredAt reports whether the token had expired at the given time
func (t SingleUseToken) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
