package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Backup codes avoid 0/O and 1/I to survive being read off paper.
const backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const backupCodeLength = 10

// GenerateOpaqueToken returns a high-entropy random token value (256 bits,
// base64url). Deliberately not self-describing: validity is determined
// solely by a store lookup, which is what makes server-side revocation work.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateBackupCodes returns n plaintext backup codes. Callers must store
// only their hashes; the plaintext is shown to the user exactly once.
func GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, backupCodeLength)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		chars := make([]byte, backupCodeLength)
		for j, b := range buf {
			chars[j] = backupCodeAlphabet[int(b)%len(backupCodeAlphabet)]
		}
		codes[i] = string(chars[:5]) + "-" + string(chars[5:])
	}
	return codes, nil
}

// NormalizeBackupCode strips separators and whitespace and upcases the code
// so user input compares against the stored form.
func NormalizeBackupCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	return strings.ReplaceAll(code, " ", "")
}

// HashToken hashes a token value with SHA-256 for storage and lookup
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
