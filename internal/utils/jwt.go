package utils

import (
	"fmt"
	"time"

	"github.com/campgrid/auth-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// JWTManager manages signed access token operations. Refresh tokens are
// opaque random values handled by the token service, not JWTs; their
// validity is decided solely by a store lookup so they can be revoked.
type JWTManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	pendingTokenExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTokenExpiry, pendingTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessTokenExpiry,
		pendingTokenExpiry: pendingTokenExpiry,
	}
}

// GenerateAccessToken generates a new access token for the user
func (j *JWTManager) GenerateAccessToken(user *domain.User) (string, error) {
	return j.generate(user, j.accessTokenExpiry)
}

// GeneratePendingToken generates the short-lived token handed out after
// primary credentials succeed but before the 2FA challenge completes. It
// carries the same claims as a full access token; the shorter TTL is the
// only distinction.
func (j *JWTManager) GeneratePendingToken(user *domain.User) (string, error) {
	return j.generate(user, j.pendingTokenExpiry)
}

func (j *JWTManager) generate(user *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"is_owner":   user.IsOwner,
		"token_type": domain.TokenTypeAccess,
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a signed access token and returns its claims.
// It fails on any signature mismatch or expiry.
func (j *JWTManager) ValidateToken(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tokenClaims, err := claimsFromMap(claims)
	if err != nil {
		return nil, err
	}

	if tokenClaims.IsExpired() {
		return nil, fmt.Errorf("token is expired")
	}

	return tokenClaims, nil
}

// DecodeExpiry decodes a token without verifying its signature, purely to
// recover the exp claim. Used when blacklisting: the blacklist entry must
// live exactly as long as the token it shadows.
func (j *JWTManager) DecodeExpiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid token claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid exp in token")
	}

	return time.Unix(int64(exp), 0), nil
}

// GetAccessTokenExpiry returns the access token expiry duration in seconds
func (j *JWTManager) GetAccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}

func claimsFromMap(claims jwt.MapClaims) (*domain.TokenClaims, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid sub in token")
	}

	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid username in token")
	}

	email, ok := claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid email in token")
	}

	tokenType, ok := claims["token_type"].(string)
	if !ok || tokenType != domain.TokenTypeAccess {
		return nil, fmt.Errorf("invalid token type")
	}

	isOwner, _ := claims["is_owner"].(bool)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid exp in token")
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid iat in token")
	}

	return &domain.TokenClaims{
		UserID:    sub,
		Username:  username,
		Email:     email,
		IsOwner:   isOwner,
		TokenType: tokenType,
		Exp:       int64(exp),
		Iat:       int64(iat),
	}, nil
}
