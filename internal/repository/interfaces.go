package repository

import (
	"context"

	"github.com/campgrid/auth-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, userID string) error
}

// RefreshTokenRepository defines methods for refresh token operations.
// Revoke must be a conditional update: it reports whether this call was the
// one that flipped the token from live to revoked, which is what makes
// rotation exactly-once under concurrent use.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

// SingleUseTokenRepository defines methods for email-verification and
// password-reset token operations
type SingleUseTokenRepository interface {
	Create(ctx context.Context, token *domain.SingleUseToken) error
	GetByTokenHash(ctx context.Context, kind, tokenHash string) (*domain.SingleUseToken, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
	InvalidateActiveForUser(ctx context.Context, userID, kind string) error
	DeleteExpired(ctx context.Context) error
}

// BackupCodeRepository defines methods for 2FA backup code operations
type BackupCodeRepository interface {
	ReplaceForUser(ctx context.Context, userID string, codeHashes []string) error
	GetUnusedByUser(ctx context.Context, userID string) ([]*domain.BackupCode, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// OAuthProviderRepository defines methods for OAuth provider operations
type OAuthProviderRepository interface {
	Create(ctx context.Context, provider *domain.OAuthProvider) error
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthProvider, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.OAuthProvider, error)
	Delete(ctx context.Context, providerID string) error
}
