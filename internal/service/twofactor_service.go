package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/repository"
	"github.com/campgrid/auth-service/internal/utils"
	"go.uber.org/zap"
)

// TOTP codes from the adjacent time step are accepted to tolerate clock skew
const totpSkewSteps = 1

// twoFactorService implements TwoFactorService. State machine per user:
// Disabled -> SetupInitiated (secret persisted, not enabled) -> Enabled ->
// Disabled. Re-initiating before confirmation silently overwrites the
// pending secret.
type twoFactorService struct {
	users           repository.UserRepository
	backupCodes     repository.BackupCodeRepository
	tokenService    *TokenService
	issuer          string
	backupCodeCount int
	logger          *zap.Logger
}

// NewTwoFactorService creates a new two-factor service
func NewTwoFactorService(
	users repository.UserRepository,
	backupCodes repository.BackupCodeRepository,
	tokenService *TokenService,
	issuer string,
	backupCodeCount int,
	logger *zap.Logger,
) TwoFactorService {
	return &twoFactorService{
		users:           users,
		backupCodes:     backupCodes,
		tokenService:    tokenService,
		issuer:          issuer,
		backupCodeCount: backupCodeCount,
		logger:          logger,
	}
}

// InitiateSetup generates a shared secret and provisioning URI. The secret
// is persisted on the user record without enabling 2FA; nothing changes for
// login until the first code is confirmed.
func (s *twoFactorService) InitiateSetup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := utils.GenerateTOTPSecret()
	if err != nil {
		return nil, err
	}

	user.TwoFactorSecret = &secret
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist pending secret: %w", err)
	}

	return &TwoFactorSetup{
		Secret:          secret,
		ProvisioningURI: utils.TOTPProvisioningURI(s.issuer, user.Email, secret),
	}, nil
}

// ConfirmSetup verifies a first TOTP code against the pending secret and
// enables 2FA. The returned plaintext backup codes are shown exactly once;
// only their hashes are stored.
func (s *twoFactorService) ConfirmSetup(ctx context.Context, userID, code string) ([]string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}
	if user.TwoFactorSecret == nil {
		return nil, ErrTwoFactorNotEnabled
	}

	if !utils.VerifyTOTP(*user.TwoFactorSecret, code, time.Now(), totpSkewSteps) {
		return nil, ErrTwoFactorInvalidCode
	}

	codes, err := utils.GenerateBackupCodes(s.backupCodeCount)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = utils.HashToken(utils.NormalizeBackupCode(c))
	}

	// Codes land before the enabled flag flips, so an enabled account always
	// has a full backup set.
	if err := s.backupCodes.ReplaceForUser(ctx, userID, hashes); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}

	user.TwoFactorEnabled = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to enable two-factor: %w", err)
	}

	s.logger.Info("two-factor enabled", zap.String("user_id", userID))

	return codes, nil
}

// VerifyLogin completes a 2FA challenge with a TOTP code or a single-use
// backup code. Success issues a full access+refresh pair identically to a
// normal login; failure burns nothing and issues nothing.
func (s *twoFactorService) VerifyLogin(ctx context.Context, userID, code string, meta RequestMeta) (*AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.IsSuspended {
		return nil, ErrAccountSuspended
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, ErrTwoFactorNotEnabled
	}

	if !utils.VerifyTOTP(*user.TwoFactorSecret, code, time.Now(), totpSkewSteps) {
		if err := s.burnBackupCode(ctx, userID, code); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	pair, err := s.tokenService.IssuePair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:             user,
		Pair:             pair,
		RefreshExpiresIn: int(s.tokenService.refreshExpiry.Seconds()),
	}, nil
}

// burnBackupCode consumes exactly one matching unused backup code. Consuming
// one never touches any other; the conditional update keeps a raced code
// single-use.
func (s *twoFactorService) burnBackupCode(ctx context.Context, userID, code string) error {
	normalized := utils.NormalizeBackupCode(code)
	if normalized == "" {
		return ErrTwoFactorInvalidCode
	}
	hash := utils.HashToken(normalized)

	unused, err := s.backupCodes.GetUnusedByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load backup codes: %w", err)
	}

	for _, candidate := range unused {
		if candidate.CodeHash != hash {
			continue
		}
		burned, err := s.backupCodes.MarkUsed(ctx, candidate.ID)
		if err != nil {
			return fmt.Errorf("failed to burn backup code: %w", err)
		}
		if !burned {
			// Raced against another use of the same code.
			return ErrTwoFactorInvalidCode
		}
		s.logger.Info("backup code consumed", zap.String("user_id", userID))
		return nil
	}

	return ErrTwoFactorInvalidCode
}

// Disable turns 2FA off. It requires a current TOTP code, never a backup
// code, so a stale last-resort credential cannot dismantle the protection.
func (s *twoFactorService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return ErrTwoFactorNotEnabled
	}

	if !utils.VerifyTOTP(*user.TwoFactorSecret, code, time.Now(), totpSkewSteps) {
		return ErrTwoFactorInvalidCode
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}

	if err := s.backupCodes.DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear backup codes: %w", err)
	}

	s.logger.Info("two-factor disabled", zap.String("user_id", userID))
	return nil
}
