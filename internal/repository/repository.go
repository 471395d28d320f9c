package repository

import (
	"github.com/campgrid/auth-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	RefreshToken  RefreshTokenRepository
	SingleUse     SingleUseTokenRepository
	BackupCode    BackupCodeRepository
	OAuthProvider OAuthProviderRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		RefreshToken:  NewRefreshTokenRepository(db),
		SingleUse:     NewSingleUseTokenRepository(db),
		BackupCode:    NewBackupCodeRepository(db),
		OAuthProvider: NewOAuthProviderRepository(db),
	}
}
