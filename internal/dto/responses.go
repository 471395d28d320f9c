package dto

// AuthResponse represents an authentication response. When a 2FA challenge
// is pending, RequiresTwoFactor is true and AccessToken carries the
// short-lived pending token; no refresh token is issued until the challenge
// completes.
type AuthResponse struct {
	AccessToken       string   `json:"access_token"`
	TokenType         string   `json:"token_type"`
	ExpiresIn         int      `json:"expires_in"`
	RequiresTwoFactor bool     `json:"requires_two_factor,omitempty"`
	User              UserInfo `json:"user"`
}

// UserInfo represents user information in responses
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsOwner  bool   `json:"is_owner"`
}

// UserResponse represents a full user profile response
type UserResponse struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	IsOwner          bool    `json:"is_owner"`
	IsEmailVerified  bool    `json:"is_email_verified"`
	TwoFactorEnabled bool    `json:"two_factor_enabled"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
	LastLoginAt      *string `json:"last_login_at"`
}

// TwoFactorSetupResponse returns the pending secret and provisioning URI
type TwoFactorSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// TwoFactorVerifySetupResponse returns the freshly generated backup codes.
// They are shown exactly once and never retrievable again.
type TwoFactorVerifySetupResponse struct {
	Message     string   `json:"message"`
	BackupCodes []string `json:"backup_codes"`
}

// AuthStatusResponse reports whether the caller holds a valid access token
type AuthStatusResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserInfo `json:"user,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
