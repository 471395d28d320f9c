package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GeneratePlaceholderPassword hashes a random value for accounts created via
// OAuth. The plaintext is discarded, so the placeholder can never be used to
// log in directly; it only keeps the password column non-empty.
func GeneratePlaceholderPassword(cost int) (string, error) {
	random, err := GenerateOpaqueToken()
	if err != nil {
		return "", err
	}
	return HashPassword(random, cost)
}
