package service

import (
	"context"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/internal/dto"
)

// RequestMeta carries per-request client metadata bound to issued refresh tokens
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthResult is the outcome of a successful credential check. Either Pair is
// set, or RequiresTwoFactor is true and PendingToken carries the short-lived
// token used to complete the challenge.
type AuthResult struct {
	User              *domain.User
	Pair              *domain.TokenPair
	RefreshExpiresIn  int
	RequiresTwoFactor bool
	PendingToken      string
}

// AuthService composes the credential subsystem into the flows exposed to the
// rest of the application; nothing else is exported to handlers.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, meta RequestMeta) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*AuthResult, error)
	Logout(ctx context.Context, userID, accessToken, refreshToken string) error
	LogoutAll(ctx context.Context, userID, accessToken string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

// TwoFactorService manages the TOTP lifecycle and backup codes
type TwoFactorService interface {
	InitiateSetup(ctx context.Context, userID string) (*TwoFactorSetup, error)
	ConfirmSetup(ctx context.Context, userID, code string) ([]string, error)
	VerifyLogin(ctx context.Context, userID, code string, meta RequestMeta) (*AuthResult, error)
	Disable(ctx context.Context, userID, code string) error
}

// TwoFactorSetup is returned by InitiateSetup; the secret is persisted on the
// user record but 2FA stays disabled until the first code is confirmed.
type TwoFactorSetup struct {
	Secret          string
	ProvisioningURI string
}

// OAuthService resolves external identities into accounts and issues tokens
// through the same gating as direct login
type OAuthService interface {
	AuthCodeURL(provider, state string) (string, error)
	HandleCallback(ctx context.Context, provider, code string, meta RequestMeta) (*AuthResult, error)
}

// Notifier delivers outbound email. Delivery failure must never fail the
// calling auth operation; implementations and callers log and continue.
type Notifier interface {
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}
