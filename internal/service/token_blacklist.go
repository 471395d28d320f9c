package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/utils"
	"github.com/campgrid/auth-service/pkg/database"
)

// TokenBlacklistService stores explicitly revoked access tokens in Redis.
// A signed token stays cryptographically valid until its exp; the blacklist
// is the only way to kill it early, so every authorization check consults it
// after verifying the signature. Entries are keyed by the token's SHA-256
// and expire together with the token, bounding storage without any pruning
// job.
type TokenBlacklistService struct {
	redis *database.Redis
}

// NewTokenBlacklistService creates a new token blacklist service
func NewTokenBlacklistService(redis *database.Redis) *TokenBlacklistService {
	return &TokenBlacklistService{redis: redis}
}

// Add blacklists an access token until expiresAt. Tokens already past their
// exp are skipped; natural expiry has done the work.
func (s *TokenBlacklistService) Add(ctx context.Context, token, userID, reason string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	key := s.key(token)
	value := fmt.Sprintf("%s:%s", userID, reason)
	if err := s.redis.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token is in the blacklist. A store error is
// returned as an error, never as implicit validity: the blacklist sits on
// the security-critical path and callers must fail closed.
func (s *TokenBlacklistService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := s.redis.Client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

func (s *TokenBlacklistService) key(token string) string {
	return fmt.Sprintf("blacklist:access:%s", utils.HashToken(token))
}
