package model

import "time"

// AccountID uniquely identifies a platform account
type AccountID string

// Account is a platform identity that owns save slots
type Account struct {
	ID           AccountID
	Username     string // login username (immutable)
	DisplayName  string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
