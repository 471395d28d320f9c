package domain

import "time"

// BackupCode represents a single-use two-factor fallback code.
// Only the SHA-256 of the code is stored; the plaintext is shown to the
// user exactly once, when 2FA setup is confirmed.
type BackupCode struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	CodeHash  string     `json:"-" db:"code_hash"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	IsUsed    bool       `json:"is_used" db:"is_used"`
	UsedAt    *time.Time `json:"used_at" db:"used_at"`
}
