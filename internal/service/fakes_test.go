package service

import (
	"context"
	"sync"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/campgrid/auth-service/internal/repository"
	"github.com/google/uuid"
)

// In-memory repository fakes. They reproduce the store contracts the
// services rely on: duplicate detection, conditional updates reporting
// whether this call flipped the row, and used rows staying visible.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken // keyed by token hash
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[string]*domain.RefreshToken{}}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.TokenHash]; ok {
		return repository.ErrDuplicateToken
	}
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	clone := *token
	r.tokens[token.TokenHash] = &clone
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeRefreshTokenRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RefreshToken
	for _, t := range r.tokens {
		if t.UserID == userID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.IsRevoked {
		return false, nil
	}
	now := time.Now()
	t.IsRevoked = true
	t.RevokedAt = &now
	return true, nil
}

func (r *fakeRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && !t.IsRevoked {
			t.IsRevoked = true
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for hash, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, hash)
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) liveCountForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && !t.IsRevoked {
			n++
		}
	}
	return n
}

type fakeSingleUseTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.SingleUseToken // keyed by id
}

func newFakeSingleUseTokenRepo() *fakeSingleUseTokenRepo {
	return &fakeSingleUseTokenRepo{tokens: map[string]*domain.SingleUseToken{}}
}

func (r *fakeSingleUseTokenRepo) Create(ctx context.Context, token *domain.SingleUseToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *fakeSingleUseTokenRepo) GetByTokenHash(ctx context.Context, kind, tokenHash string) (*domain.SingleUseToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Kind == kind && t.TokenHash == tokenHash {
			clone := *t
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSingleUseTokenRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || t.IsUsed {
		return false, nil
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	return true, nil
}

func (r *fakeSingleUseTokenRepo) InvalidateActiveForUser(ctx context.Context, userID, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.Kind == kind && !t.IsUsed {
			t.ExpiresAt = now
		}
	}
	return nil
}

func (r *fakeSingleUseTokenRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, id)
		}
	}
	return nil
}

type fakeBackupCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.BackupCode // keyed by id
}

func newFakeBackupCodeRepo() *fakeBackupCodeRepo {
	return &fakeBackupCodeRepo{codes: map[string]*domain.BackupCode{}}
}

func (r *fakeBackupCodeRepo) ReplaceForUser(ctx context.Context, userID string, codeHashes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.UserID == userID {
			delete(r.codes, id)
		}
	}
	for _, hash := range codeHashes {
		id := uuid.New().String()
		r.codes[id] = &domain.BackupCode{
			ID:        id,
			UserID:    userID,
			CodeHash:  hash,
			CreatedAt: time.Now(),
		}
	}
	return nil
}

func (r *fakeBackupCodeRepo) GetUnusedByUser(ctx context.Context, userID string) ([]*domain.BackupCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BackupCode
	for _, c := range r.codes {
		if c.UserID == userID && !c.IsUsed {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBackupCodeRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[id]
	if !ok || c.IsUsed {
		return false, nil
	}
	now := time.Now()
	c.IsUsed = true
	c.UsedAt = &now
	return true, nil
}

func (r *fakeBackupCodeRepo) DeleteForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.UserID == userID {
			delete(r.codes, id)
		}
	}
	return nil
}

type fakeOAuthProviderRepo struct {
	mu    sync.Mutex
	links map[string]*domain.OAuthProvider // keyed by id
}

func newFakeOAuthProviderRepo() *fakeOAuthProviderRepo {
	return &fakeOAuthProviderRepo{links: map[string]*domain.OAuthProvider{}}
}

func (r *fakeOAuthProviderRepo) Create(ctx context.Context, provider *domain.OAuthProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Provider == provider.Provider && l.ProviderUserID == provider.ProviderUserID {
			return repository.ErrDuplicateOAuthProvider
		}
	}
	provider.ID = uuid.New().String()
	provider.CreatedAt = time.Now()
	clone := *provider
	r.links[provider.ID] = &clone
	return nil
}

func (r *fakeOAuthProviderRepo) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Provider == provider && l.ProviderUserID == providerUserID {
			clone := *l
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOAuthProviderRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.OAuthProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.OAuthProvider
	for _, l := range r.links {
		if l.UserID == userID {
			clone := *l
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeOAuthProviderRepo) Delete(ctx context.Context, providerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, providerID)
	return nil
}
