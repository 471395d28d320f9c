package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/pkg/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// singleUseTokenRepository implements SingleUseTokenRepository interface
type singleUseTokenRepository struct {
	db *database.Postgres
}

// NewSingleUseTokenRepository creates a new single-use token repository
func NewSingleUseTokenRepository(db *database.Postgres) SingleUseTokenRepository {
	return &singleUseTokenRepository{db: db}
}

// Create creates a new single-use token in the database
func (r *singleUseTokenRepository) Create(ctx context.Context, token *domain.SingleUseToken) error {
	query := `
		INSERT INTO single_use_tokens (id, user_id, email, kind, token_hash, expires_at, created_at, is_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// Generate UUID if not provided
	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Email,
		token.Kind,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.IsUsed,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("token with hash already exists: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create single-use token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a single-use token of the given kind by its hash.
// Used rows are returned too; the caller distinguishes an already-consumed
// token from an unknown one.
func (r *singleUseTokenRepository) GetByTokenHash(ctx context.Context, kind, tokenHash string) (*domain.SingleUseToken, error) {
	query := `
		SELECT id, user_id, email, kind, token_hash, expires_at, created_at, is_used, used_at
		FROM single_use_tokens
		WHERE kind = $1 AND token_hash = $2
	`

	token := &domain.SingleUseToken{}
	var usedAt sql.NullTime

	err := r.db.DB.QueryRowContext(ctx, query, kind, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.Email,
		&token.Kind,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.IsUsed,
		&usedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("single-use token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get single-use token: %w", err)
	}

	if usedAt.Valid {
		token.UsedAt = &usedAt.Time
	}

	return token, nil
}

// MarkUsed flips a token to used, but only if it is still unused. The
// returned bool reports whether this call performed the transition.
func (r *singleUseTokenRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE single_use_tokens
		SET is_used = true, used_at = $2
		WHERE id = $1 AND is_used = false
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark token used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// InvalidateActiveForUser marks every outstanding unused token of the given
// kind as used, so at most one live token exists after the next Create.
func (r *singleUseTokenRepository) InvalidateActiveForUser(ctx context.Context, userID, kind string) error {
	query := `
		UPDATE single_use_tokens
		SET is_used = true, used_at = $3
		WHERE user_id = $1 AND kind = $2 AND is_used = false
	`

	if _, err := r.db.DB.ExecContext(ctx, query, userID, kind, time.Now()); err != nil {
		return fmt.Errorf("failed to invalidate tokens for user: %w", err)
	}

	return nil
}

// DeleteExpired deletes all expired single-use tokens
func (r *singleUseTokenRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM single_use_tokens WHERE expires_at < $1`

	_, err := r.db.DB.ExecContext(ctx, query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	return nil
}
