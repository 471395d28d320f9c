package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/internal/repository"
	"github.com/campgrid/auth-service/internal/utils"
)

// TokenService issues access/refresh pairs and owns the refresh token
// lifecycle: Issued -> Revoked (terminal) or Issued -> Expired. Refresh
// values are opaque; only their SHA-256 ever reaches the store.
type TokenService struct {
	users         repository.UserRepository
	refreshTokens repository.RefreshTokenRepository
	jwtManager    *utils.JWTManager
	blacklist     *TokenBlacklistService
	refreshExpiry time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(
	users repository.UserRepository,
	refreshTokens repository.RefreshTokenRepository,
	jwtManager *utils.JWTManager,
	blacklist *TokenBlacklistService,
	refreshExpiry time.Duration,
) *TokenService {
	return &TokenService{
		users:         users,
		refreshTokens: refreshTokens,
		jwtManager:    jwtManager,
		blacklist:     blacklist,
		refreshExpiry: refreshExpiry,
	}
}

// IssuePair issues a signed access token and a fresh opaque refresh token
// bound to the request metadata
func (s *TokenService) IssuePair(ctx context.Context, user *domain.User, meta RequestMeta) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshValue, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	record := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(refreshValue),
		ExpiresAt: time.Now().Add(s.refreshExpiry),
	}
	if meta.IPAddress != "" {
		record.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		record.UserAgent = &meta.UserAgent
	}

	if err := s.refreshTokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		TokenType:    "Bearer",
		ExpiresIn:    s.jwtManager.GetAccessTokenExpiry(),
	}, nil
}

// AuthResultFor applies the 2FA gate shared by direct login and OAuth login.
// When 2FA is enabled, normal issuance is suppressed: the caller gets a
// short-lived pending token and no refresh token until the challenge
// completes.
func (s *TokenService) AuthResultFor(ctx context.Context, user *domain.User, meta RequestMeta) (*AuthResult, error) {
	if user.TwoFactorEnabled {
		pending, err := s.jwtManager.GeneratePendingToken(user)
		if err != nil {
			return nil, fmt.Errorf("failed to generate pending token: %w", err)
		}
		return &AuthResult{
			User:              user,
			RequiresTwoFactor: true,
			PendingToken:      pending,
		}, nil
	}

	pair, err := s.IssuePair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:             user,
		Pair:             pair,
		RefreshExpiresIn: int(s.refreshExpiry.Seconds()),
	}, nil
}

// Rotate exchanges a live refresh token for a new pair. The presented token
// is revoked with a conditional update before anything is issued, so two
// racing callers on the same value get exactly one success; the loser sees
// ErrTokenInvalid, never a second valid pair. Revoke-then-issue ordering
// means a failure after revocation forces re-login instead of ever leaving
// two live tokens.
func (s *TokenService) Rotate(ctx context.Context, refreshValue string, meta RequestMeta) (*domain.User, *domain.TokenPair, error) {
	tokenHash := utils.HashToken(refreshValue)

	record, err := s.refreshTokens.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if record.IsRevoked {
		return nil, nil, ErrTokenInvalid
	}
	if time.Now().After(record.ExpiresAt) {
		return nil, nil, ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	if user.IsSuspended {
		// Burn the presented token; a suspended account keeps nothing live.
		if _, err := s.refreshTokens.Revoke(ctx, tokenHash); err != nil {
			return nil, nil, fmt.Errorf("failed to revoke token of suspended user: %w", err)
		}
		return nil, nil, ErrAccountSuspended
	}

	revoked, err := s.refreshTokens.Revoke(ctx, tokenHash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		// Another rotation got here first.
		return nil, nil, ErrTokenInvalid
	}

	pair, err := s.IssuePair(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// RevokeRefreshToken revokes a single refresh token by value. Idempotent:
// revoking an already-revoked or unknown token is a no-op, so logout timing
// reveals nothing about token validity.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshValue string) error {
	if refreshValue == "" {
		return nil
	}
	if _, err := s.refreshTokens.Revoke(ctx, utils.HashToken(refreshValue)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes every live refresh token for the user. Idempotent.
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.refreshTokens.RevokeAllForUser(ctx, userID)
}

// BlacklistAccessToken revokes a signed access token before its natural
// expiry. The token is decoded (not re-verified) purely to recover exp, so
// the blacklist entry expires exactly when the token would have.
func (s *TokenService) BlacklistAccessToken(ctx context.Context, token, userID, reason string) error {
	if token == "" {
		return nil
	}

	expiresAt, err := s.jwtManager.DecodeExpiry(token)
	if err != nil {
		// Not a token we issued; nothing to blacklist.
		return nil
	}

	return s.blacklist.Add(ctx, token, userID, reason, expiresAt)
}
