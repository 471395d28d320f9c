package service

import "errors"

// Error taxonomy recovered at the handler boundary and translated into a
// stable status plus machine-readable code. No raw storage or signing errors
// ever reach a caller.
var (
	// ErrInvalidCredentials is returned when email/username or password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotVerified is returned when the account email has not been verified
	ErrAccountNotVerified = errors.New("account email is not verified")

	// ErrAccountSuspended is returned when the account is suspended
	ErrAccountSuspended = errors.New("account is suspended")

	// ErrTokenInvalid is returned for unknown, revoked, malformed, or replayed tokens
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired is returned when a token's lifetime has elapsed
	ErrTokenExpired = errors.New("token is expired")

	// ErrTokenAlreadyUsed is returned when a single-use token is presented again
	// after consumption, so a twice-clicked email link reads as "already done"
	// rather than "invalid link"
	ErrTokenAlreadyUsed = errors.New("token has already been used")

	// ErrTwoFactorInvalidCode is returned for a wrong TOTP or backup code
	ErrTwoFactorInvalidCode = errors.New("invalid two-factor code")

	// ErrTwoFactorNotEnabled is returned when a 2FA operation targets an account
	// without 2FA enabled
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")

	// ErrTwoFactorAlreadyEnabled is returned when setup is confirmed twice
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// ErrOAuthConflict is returned when a provider email collides with an
	// existing password-based account; linking would allow account takeover
	ErrOAuthConflict = errors.New("account with this email already exists, sign in with your password first")

	// ErrPasswordReused is returned when a password reset reuses a recent password
	ErrPasswordReused = errors.New("new password must differ from recently used passwords")

	// ErrEmailAlreadyExists is returned on registration with a taken email
	ErrEmailAlreadyExists = errors.New("user with this email already exists")

	// ErrUsernameAlreadyExists is returned on registration with a taken username
	ErrUsernameAlreadyExists = errors.New("user with this username already exists")

	// ErrValidation is wrapped around input validation failures
	ErrValidation = errors.New("validation failed")
)
