package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/internal/dto"
	"github.com/campgrid/auth-service/internal/repository"
	"github.com/campgrid/auth-service/internal/utils"
	"go.uber.org/zap"
)

// authService implements AuthService. It composes the token, single-use
// token, two-factor, and blacklist services into the flows the handlers
// expose; all taxonomy errors surface here and storage/signing errors are
// wrapped before they ever reach a caller.
type authService struct {
	users        repository.UserRepository
	tokenService *TokenService
	singleUse    *SingleUseTokenService
	blacklist    *TokenBlacklistService
	jwtManager   *utils.JWTManager
	notifier     Notifier
	bcryptCost   int
	historyDepth int
	publicURL    string
	logger       *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepository,
	tokenService *TokenService,
	singleUse *SingleUseTokenService,
	blacklist *TokenBlacklistService,
	jwtManager *utils.JWTManager,
	notifier Notifier,
	bcryptCost int,
	historyDepth int,
	publicURL string,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:        users,
		tokenService: tokenService,
		singleUse:    singleUse,
		blacklist:    blacklist,
		jwtManager:   jwtManager,
		notifier:     notifier,
		bcryptCost:   bcryptCost,
		historyDepth: historyDepth,
		publicURL:    publicURL,
		logger:       logger,
	}
}

// Register creates an unverified account and sends a verification email.
// No tokens are issued until the email is verified.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if !utils.ValidateEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if !utils.ValidateUsername(req.Username) {
		return nil, fmt.Errorf("%w: username must be 3-30 characters, letters, digits, _ or -", ErrValidation)
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters long and contain uppercase, lowercase, and number", ErrValidation)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        utils.SanitizeEmail(req.Email),
		PasswordHash: passwordHash,
		HasPassword:  true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendVerificationEmail(ctx, user)

	return userResponse(user), nil
}

// Login authenticates primary credentials and applies the verification,
// suspension, and 2FA gates. An unverified account triggers a fresh
// verification email alongside the failure.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, meta RequestMeta) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) || !user.HasPassword {
		return nil, ErrInvalidCredentials
	}

	if user.IsSuspended {
		return nil, ErrAccountSuspended
	}

	if !user.IsEmailVerified {
		s.sendVerificationEmail(ctx, user)
		return nil, ErrAccountNotVerified
	}

	result, err := s.tokenService.AuthResultFor(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if !result.RequiresTwoFactor {
		if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
			s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return result, nil
}

// Refresh rotates a refresh token into a new pair
func (s *authService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*AuthResult, error) {
	user, pair, err := s.tokenService.Rotate(ctx, refreshToken, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:             user,
		Pair:             pair,
		RefreshExpiresIn: int(s.tokenService.refreshExpiry.Seconds()),
	}, nil
}

// Logout blacklists the presented access token and revokes the refresh
// token. Both operations are idempotent, so repeated logouts are no-ops.
func (s *authService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if err := s.tokenService.BlacklistAccessToken(ctx, accessToken, userID, "logout"); err != nil {
		return err
	}
	return s.tokenService.RevokeRefreshToken(ctx, refreshToken)
}

// LogoutAll blacklists the presented access token and revokes every live
// refresh token for the user
func (s *authService) LogoutAll(ctx context.Context, userID, accessToken string) error {
	if err := s.tokenService.BlacklistAccessToken(ctx, accessToken, userID, "logout_all"); err != nil {
		return err
	}
	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// VerifyEmail consumes a verification token and marks the account verified.
// The verification flip commits before the token is consumed; the flip is
// idempotent, so an interrupted sequence is safe to retry with the same link.
func (s *authService) VerifyEmail(ctx context.Context, tokenValue string) error {
	token, err := s.singleUse.Verify(ctx, domain.TokenKindEmailVerification, tokenValue)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsEmailVerified {
		user.IsEmailVerified = true
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}
	}

	return s.singleUse.Consume(ctx, token.ID)
}

// ResendVerification issues a fresh verification token. Unknown or already
// verified addresses report success without side effects so the endpoint
// cannot be used to enumerate accounts.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsEmailVerified {
		return nil
	}

	s.sendVerificationEmail(ctx, user)
	return nil
}

// RequestPasswordReset issues a reset token, invalidating any outstanding
// one so at most one live reset link exists. Unknown addresses report
// success without side effects.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	value, err := s.singleUse.Generate(ctx, domain.TokenKindPasswordReset, user)
	if err != nil {
		return err
	}

	s.sendEmail(ctx, user.Email, "Reset your CampGrid password",
		fmt.Sprintf("Hi %s,\n\nReset your password within the next hour: %s/reset-password?token=%s\n\nIf you didn't request this, you can ignore this email.",
			user.Username, s.publicURL, value))

	return nil
}

// ResetPassword rewrites the password hash, retires the reset token, and
// revokes every live refresh token. The hash rewrite commits before the
// token is consumed and is idempotent under retry with the same password.
func (s *authService) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return fmt.Errorf("%w: password must be at least 8 characters long and contain uppercase, lowercase, and number", ErrValidation)
	}

	token, err := s.singleUse.Verify(ctx, domain.TokenKindPasswordReset, tokenValue)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if s.passwordRecentlyUsed(user, newPassword) {
		return ErrPasswordReused
	}

	newHash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if user.HasPassword {
		user.PasswordHistory = append(user.PasswordHistory, user.PasswordHash)
		if len(user.PasswordHistory) > s.historyDepth {
			user.PasswordHistory = user.PasswordHistory[len(user.PasswordHistory)-s.historyDepth:]
		}
	}
	user.PasswordHash = newHash
	user.HasPassword = true

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.singleUse.Consume(ctx, token.ID); err != nil {
		return err
	}

	if err := s.tokenService.RevokeAllUserTokens(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password reset",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	s.sendEmail(ctx, user.Email, "Your CampGrid password was changed",
		fmt.Sprintf("Hi %s,\n\nYour password was just changed. If this wasn't you, reset it immediately and contact support.", user.Username))

	return nil
}

// ValidateToken validates an access token for a protected call: signature
// and expiry first, then absence from the blacklist. Either failure, or a
// blacklist store failure, denies the request; the blacklist is on the
// security-critical path and never fails open.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userResponse(user), nil
}

func (s *authService) passwordRecentlyUsed(user *domain.User, password string) bool {
	if user.HasPassword && utils.CheckPasswordHash(password, user.PasswordHash) {
		return true
	}
	for _, old := range user.PasswordHistory {
		if utils.CheckPasswordHash(password, old) {
			return true
		}
	}
	return false
}

func (s *authService) sendVerificationEmail(ctx context.Context, user *domain.User) {
	value, err := s.singleUse.Generate(ctx, domain.TokenKindEmailVerification, user)
	if err != nil {
		s.logger.Error("failed to generate verification token",
			zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	s.sendEmail(ctx, user.Email, "Verify your CampGrid email",
		fmt.Sprintf("Hi %s,\n\nConfirm your email address: %s/verify-email?token=%s",
			user.Username, s.publicURL, value))
}

// sendEmail delivers best-effort: a notifier failure is logged and the
// calling auth operation continues, since the account state is already
// committed and a resend can be requested later.
func (s *authService) sendEmail(ctx context.Context, to, subject, text string) {
	if _, err := s.notifier.Send(ctx, to, subject, text, ""); err != nil {
		s.logger.Error("failed to send email",
			zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}

func userResponse(user *domain.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		IsOwner:          user.IsOwner,
		IsEmailVerified:  user.IsEmailVerified,
		TwoFactorEnabled: user.TwoFactorEnabled,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        user.UpdatedAt.Format(time.RFC3339),
	}

	if user.LastLoginAt != nil {
		lastLogin := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &lastLogin
	}

	return resp
}
