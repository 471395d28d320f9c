package domain

import "time"

// User represents the security view of a platform account
type User struct {
	ID               string     `json:"id" db:"id"`
	Username         string     `json:"username" db:"username"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	HasPassword      bool       `json:"-" db:"has_password"`
	PasswordHistory  []string   `json:"-" db:"password_history"`
	IsOwner          bool       `json:"is_owner" db:"is_owner"`
	IsSuspended      bool       `json:"is_suspended" db:"is_suspended"`
	IsEmailVerified  bool       `json:"is_email_verified" db:"is_email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled" db:"two_factor_enabled"`
	TwoFactorSecret  *string    `json:"-" db:"two_factor_secret"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt      *time.Time `json:"last_login_at" db:"last_login_at"`
}

// RefreshToken represents a server-side refresh token record.
// Rows are never mutated after creation except for the revocation fields.
type RefreshToken struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	IsRevoked bool       `json:"is_revoked" db:"is_revoked"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
	IPAddress *string    `json:"ip_address" db:"ip_address"`
	UserAgent *string    `json:"user_agent" db:"user_agent"`
}

// OAuthProvider represents an OAuth provider connection for a user
type OAuthProvider struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Provider       string    `json:"provider" db:"provider"` // google, facebook
	ProviderUserID string    `json:"provider_user_id" db:"provider_user_id"`
	Email          *string   `json:"email" db:"email"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
