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

// SingleUseTokenService issues and consumes email-verification and
// password-reset tokens. A token moves Issued -> Used exactly once or
// expires; both terminal states are distinguishable on inspection so a
// replayed link can be reported as "already used" rather than "invalid".
type SingleUseTokenService struct {
	tokens             repository.SingleUseTokenRepository
	verificationExpiry time.Duration
	resetExpiry        time.Duration
}

// NewSingleUseTokenService creates a new single-use token service
func NewSingleUseTokenService(
	tokens repository.SingleUseTokenRepository,
	verificationExpiry, resetExpiry time.Duration,
) *SingleUseTokenService {
	return &SingleUseTokenService{
		tokens:             tokens,
		verificationExpiry: verificationExpiry,
		resetExpiry:        resetExpiry,
	}
}

// Generate issues a new token of the given kind for the user and returns the
// plaintext value for delivery. Password-reset tokens invalidate all other
// outstanding reset tokens first, so at most one live reset link exists per
// user; verification tokens deliberately do not.
func (s *SingleUseTokenService) Generate(ctx context.Context, kind string, user *domain.User) (string, error) {
	if kind == domain.TokenKindPasswordReset {
		if err := s.tokens.InvalidateActiveForUser(ctx, user.ID, kind); err != nil {
			return "", fmt.Errorf("failed to invalidate outstanding reset tokens: %w", err)
		}
	}

	value, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", err
	}

	token := &domain.SingleUseToken{
		UserID:    user.ID,
		Email:     user.Email,
		Kind:      kind,
		TokenHash: utils.HashToken(value),
		ExpiresAt: time.Now().Add(s.expiry(kind)),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", kind, err)
	}

	return value, nil
}

// Verify resolves a plaintext token value to its live record. Unknown values
// yield ErrTokenInvalid; consumed ones ErrTokenAlreadyUsed; expired ones
// ErrTokenExpired.
func (s *SingleUseTokenService) Verify(ctx context.Context, kind, value string) (*domain.SingleUseToken, error) {
	token, err := s.tokens.GetByTokenHash(ctx, kind, utils.HashToken(value))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up %s token: %w", kind, err)
	}

	if token.IsUsed {
		return nil, ErrTokenAlreadyUsed
	}

	if token.IsExpiredAt(time.Now()) {
		return nil, ErrTokenExpired
	}

	return token, nil
}

// Consume flips the token to used. Called only after the token's side effect
// has durably committed; the side effects themselves are idempotent, so an
// interrupted verify-then-consume sequence is safe to retry. Losing the
// conditional update means another caller consumed the token first.
func (s *SingleUseTokenService) Consume(ctx context.Context, tokenID string) error {
	flipped, err := s.tokens.MarkUsed(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	if !flipped {
		return ErrTokenAlreadyUsed
	}
	return nil
}

func (s *SingleUseTokenService) expiry(kind string) time.Duration {
	if kind == domain.TokenKindPasswordReset {
		return s.resetExpiry
	}
	return s.verificationExpiry
}
