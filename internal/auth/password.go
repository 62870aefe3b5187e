package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher is the credential-hashing primitive used everywhere a
// password is stored or checked
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the default cost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash derives a digest from a plaintext password
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Matches reports whether the plaintext corresponds to the digest
func (h *BcryptHasher) Matches(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
