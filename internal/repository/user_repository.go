package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/pkg/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, username, email, password_hash, has_password, password_history,
		is_owner, is_suspended, is_email_verified, two_factor_enabled, two_factor_secret,
		created_at, updated_at, last_login_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, has_password, password_history,
			is_owner, is_suspended, is_email_verified, two_factor_enabled, two_factor_secret,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	// Generate UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	// pq.Array encodes a nil slice as SQL NULL, which the NOT NULL
	// password_history column rejects
	if user.PasswordHistory == nil {
		user.PasswordHistory = []string{}
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.HasPassword,
		pq.Array(user.PasswordHistory),
		user.IsOwner,
		user.IsSuspended,
		user.IsEmailVerified,
		user.TwoFactorEnabled,
		user.TwoFactorSecret,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				if strings.Contains(pqErr.Constraint, "username") {
					return fmt.Errorf("user with username %s already exists: %w", user.Username, ErrDuplicateUsername)
				}
				return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, email), fmt.Sprintf("user with email %s", email))
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, username), fmt.Sprintf("user with username %s", username))
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, id), fmt.Sprintf("user with id %s", id))
}

func (r *userRepository) scanUser(row *sql.Row, desc string) (*domain.User, error) {
	user := &domain.User{}
	var twoFactorSecret sql.NullString
	var lastLoginAt sql.NullTime
	var history pq.StringArray

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.HasPassword,
		&history,
		&user.IsOwner,
		&user.IsSuspended,
		&user.IsEmailVerified,
		&user.TwoFactorEnabled,
		&twoFactorSecret,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s not found: %w", desc, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", desc, err)
	}

	user.PasswordHistory = []string(history)
	if twoFactorSecret.Valid {
		user.TwoFactorSecret = &twoFactorSecret.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	return user, nil
}

// Update updates an existing user's security fields
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, has_password = $5,
			password_history = $6, is_owner = $7, is_suspended = $8,
			is_email_verified = $9, two_factor_enabled = $10, two_factor_secret = $11,
			updated_at = $12
		WHERE id = $1
	`

	if user.PasswordHistory == nil {
		user.PasswordHistory = []string{}
	}

	result, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.HasPassword,
		pq.Array(user.PasswordHistory),
		user.IsOwner,
		user.IsSuspended,
		user.IsEmailVerified,
		user.TwoFactorEnabled,
		user.TwoFactorSecret,
		time.Now(),
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
			}
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", user.ID, ErrNotFound)
	}

	return nil
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET last_login_at = $1
		WHERE id = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
	}

	return nil
}
