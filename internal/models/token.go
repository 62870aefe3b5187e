package models

import (
	"time"
)

// TokenType classifies what a stored token is for
type TokenType string

const (
	TokenTypeAccess       TokenType = "access"       // Short-lived API access
	TokenTypeRefresh      TokenType = "refresh"      // Exchanged for new access tokens
	TokenTypeReset        TokenType = "reset"        // Password reset flow
	TokenTypeVerification TokenType = "verification" // Email verification flow
)

// ValidTokenType reports whether t is one of the known token types
func ValidTokenType(t TokenType) bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeReset, TokenTypeVerification:
		return true
	}
	return false
}

// DefaultExpiry returns the expiration time applied when a token is created
// without an explicit expiry. Offsets are fixed per type.
func DefaultExpiry(t TokenType, now time.Time) time.Time {
	switch t {
	case TokenTypeAccess:
		return now.Add(24 * time.Hour)
	case TokenTypeRefresh:
		return now.Add(7 * 24 * time.Hour)
	case TokenTypeReset:
		return now.Add(24 * time.Hour)
	case TokenTypeVerification:
		return now.Add(48 * time.Hour)
	default:
		return now.Add(24 * time.Hour)
	}
}

// Token represents an opaque, persisted token row
type Token struct {
	ID        string     `json:"id" db:"id"`
	Value     string     `json:"token" db:"token"`
	Type      TokenType  `json:"tokenType" db:"token_type"`
	Used      bool       `json:"used" db:"used"`
	UserID    string     `json:"userId" db:"user_id"`
	ExpiresAt time.Time  `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// IsExpired reports whether the token's expiry has passed at the given time
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsValid reports whether the token can still be consumed: never used, not
// expired, and not soft-deleted
func (t *Token) IsValid(now time.Time) bool {
	return !t.Used && !t.IsExpired(now) && t.DeletedAt == nil
}
