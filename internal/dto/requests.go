package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest carries an email-verification token
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResendVerificationRequest asks for a fresh verification email
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// TwoFactorVerifySetupRequest confirms 2FA setup with a first TOTP code
type TwoFactorVerifySetupRequest struct {
	Code string `json:"code" binding:"required"`
}

// TwoFactorLoginRequest completes a 2FA login challenge with a TOTP code or
// a backup code
type TwoFactorLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// TwoFactorDisableRequest disables 2FA; requires a current TOTP code, never
// a backup code
type TwoFactorDisableRequest struct {
	Code string `json:"code" binding:"required"`
}
