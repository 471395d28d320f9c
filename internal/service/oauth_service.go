package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/campgrid/auth-service/internal/config"
	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/internal/repository"
	"github.com/campgrid/auth-service/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// ErrUnsupportedProvider is returned for providers this deployment does not configure
var ErrUnsupportedProvider = errors.New("unsupported oauth provider")

// externalProfile is what a provider tells us about the authenticated subject
type externalProfile struct {
	SubjectID string
	Email     string
	Name      string
}

type providerClient struct {
	config      *oauth2.Config
	userinfoURL string
}

// oauthService implements OAuthService. Resolution order per callback:
// provider subject id first, then email. An email collision with a
// password-bearing account is a hard conflict, never a silent link; an
// attacker-controlled provider email must not take over a direct-registration
// account.
type oauthService struct {
	users        repository.UserRepository
	links        repository.OAuthProviderRepository
	tokenService *TokenService
	providers    map[string]providerClient
	bcryptCost   int
	logger       *zap.Logger
}

// NewOAuthService creates a new OAuth service for the configured providers
func NewOAuthService(
	users repository.UserRepository,
	links repository.OAuthProviderRepository,
	tokenService *TokenService,
	cfg config.OAuthConfig,
	bcryptCost int,
	logger *zap.Logger,
) OAuthService {
	providers := map[string]providerClient{}

	if cfg.Google.ClientID != "" {
		providers["google"] = providerClient{
			config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     endpoints.Google,
			},
			userinfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		}
	}

	if cfg.Facebook.ClientID != "" {
		providers["facebook"] = providerClient{
			config: &oauth2.Config{
				ClientID:     cfg.Facebook.ClientID,
				ClientSecret: cfg.Facebook.ClientSecret,
				RedirectURL:  cfg.Facebook.RedirectURL,
				Scopes:       []string{"email", "public_profile"},
				Endpoint:     endpoints.Facebook,
			},
			userinfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		}
	}

	return &oauthService{
		users:        users,
		links:        links,
		tokenService: tokenService,
		providers:    providers,
		bcryptCost:   bcryptCost,
		logger:       logger,
	}
}

// AuthCodeURL returns the provider's consent page URL for the given state
func (s *oauthService) AuthCodeURL(provider, state string) (string, error) {
	client, ok := s.providers[provider]
	if !ok {
		return "", ErrUnsupportedProvider
	}
	return client.config.AuthCodeURL(state), nil
}

// HandleCallback exchanges the authorization code, fetches the provider
// profile, resolves or creates the account, then applies the same suspension
// and 2FA gating as direct login before any token is issued.
func (s *oauthService) HandleCallback(ctx context.Context, provider, code string, meta RequestMeta) (*AuthResult, error) {
	client, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	token, err := client.config.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth code exchange failed", zap.String("provider", provider), zap.Error(err))
		return nil, ErrTokenInvalid
	}

	profile, err := s.fetchProfile(ctx, client, token)
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, provider, profile)
	if err != nil {
		return nil, err
	}

	if user.IsSuspended {
		return nil, ErrAccountSuspended
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

func (s *oauthService) fetchProfile(ctx context.Context, client providerClient, token *oauth2.Token) (*externalProfile, error) {
	resp, err := client.config.Client(ctx, token).Get(client.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider profile request returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode provider profile: %w", err)
	}

	if payload.ID == "" || payload.Email == "" {
		return nil, fmt.Errorf("provider profile is missing id or email")
	}

	return &externalProfile{
		SubjectID: payload.ID,
		Email:     utils.SanitizeEmail(payload.Email),
		Name:      payload.Name,
	}, nil
}

// resolveUser implements the linking decision tree: subject id match wins;
// an email match links only when the account was itself OAuth-created; no
// match at all creates a pre-verified account with an unusable placeholder
// password.
func (s *oauthService) resolveUser(ctx context.Context, provider string, profile *externalProfile) (*domain.User, error) {
	link, err := s.links.GetByProvider(ctx, provider, profile.SubjectID)
	if err == nil {
		user, err := s.users.GetByID(ctx, link.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load linked user: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up oauth link: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		if user.HasPassword {
			return nil, ErrOAuthConflict
		}
		if err := s.createLink(ctx, user.ID, provider, profile); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	return s.createUser(ctx, provider, profile)
}

func (s *oauthService) createUser(ctx context.Context, provider string, profile *externalProfile) (*domain.User, error) {
	placeholder, err := utils.GeneratePlaceholderPassword(s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:        usernameFromEmail(profile.Email),
		Email:           profile.Email,
		PasswordHash:    placeholder,
		HasPassword:     false,
		IsEmailVerified: true, // the provider has already verified this address
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		user.Username = fmt.Sprintf("%s-%s", user.Username, uuid.New().String()[:8])
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	if err := s.createLink(ctx, user.ID, provider, profile); err != nil {
		return nil, err
	}

	s.logger.Info("oauth account created",
		zap.String("provider", provider),
		zap.String("user_id", user.ID),
	)

	return user, nil
}

func (s *oauthService) createLink(ctx context.Context, userID, provider string, profile *externalProfile) error {
	link := &domain.OAuthProvider{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: profile.SubjectID,
		Email:          &profile.Email,
	}
	if err := s.links.Create(ctx, link); err != nil && !errors.Is(err, repository.ErrDuplicateOAuthProvider) {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

func usernameFromEmail(email string) string {
	local := strings.SplitN(email, "@", 2)[0]
	local = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '-'
	}, local)
	if len(local) < 3 {
		local = fmt.Sprintf("camper-%s", uuid.New().String()[:8])
	}
	if len(local) > 30 {
		local = local[:30]
	}
	return local
}
