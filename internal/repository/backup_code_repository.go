package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/pkg/database"
	"github.com/google/uuid"
)

// backupCodeRepository implements BackupCodeRepository interface
type backupCodeRepository struct {
	db *database.Postgres
}

// NewBackupCodeRepository creates a new backup code repository
func NewBackupCodeRepository(db *database.Postgres) BackupCodeRepository {
	return &backupCodeRepository{db: db}
}

// ReplaceForUser atomically replaces the user's backup code set with the
// given hashes. Runs in a transaction so the user never observes a partial
// set.
func (r *backupCodeRepository) ReplaceForUser(ctx context.Context, userID string, codeHashes []string) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete old backup codes: %w", err)
	}

	insert := `
		INSERT INTO backup_codes (id, user_id, code_hash, created_at, is_used)
		VALUES ($1, $2, $3, $4, false)
	`
	now := time.Now()
	for _, hash := range codeHashes {
		if _, err := tx.ExecContext(ctx, insert, uuid.New().String(), userID, hash, now); err != nil {
			return fmt.Errorf("failed to insert backup code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit backup codes: %w", err)
	}

	return nil
}

// GetUnusedByUser retrieves the user's unused backup codes
func (r *backupCodeRepository) GetUnusedByUser(ctx context.Context, userID string) ([]*domain.BackupCode, error) {
	query := `
		SELECT id, user_id, code_hash, created_at, is_used, used_at
		FROM backup_codes
		WHERE user_id = $1 AND is_used = false
		ORDER BY created_at
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get backup codes: %w", err)
	}
	defer rows.Close()

	var codes []*domain.BackupCode
	for rows.Next() {
		code := &domain.BackupCode{}
		var usedAt sql.NullTime

		err := rows.Scan(
			&code.ID,
			&code.UserID,
			&code.CodeHash,
			&code.CreatedAt,
			&code.IsUsed,
			&usedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backup code: %w", err)
		}

		if usedAt.Valid {
			code.UsedAt = &usedAt.Time
		}

		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backup codes: %w", err)
	}

	return codes, nil
}

// MarkUsed burns a backup code, but only if it is still unused. The returned
// bool reports whether this call performed the transition; concurrent use of
// the same code burns it exactly once.
func (r *backupCodeRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE backup_codes
		SET is_used = true, used_at = $2
		WHERE id = $1 AND is_used = false
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark backup code used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// DeleteForUser deletes all backup codes for a user
func (r *backupCodeRepository) DeleteForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM backup_codes WHERE user_id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete backup codes: %w", err)
	}

	return nil
}
