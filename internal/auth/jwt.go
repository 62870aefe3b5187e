package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim values carried in the tokenType claim
const (
	ClaimTypeAccess  = "access"
	ClaimTypeRefresh = "refresh"
)

// JWTClaims is the payload signed into access and refresh tokens. Subject
// carries the email; Role is only present on access tokens.
type JWTClaims struct {
	UserID    string `json:"userId"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies signed stateless tokens. There is no
// server-side state: an issued token stays verifiable until its expiry
// claim passes, logout or not.
type JWTManager struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a new JWTManager
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:  []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access-token lifetime
func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *JWTManager) sign(claims JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// GenerateAccessToken signs an access token carrying the user's role
func (m *JWTManager) GenerateAccessToken(email, userID, role string) (string, error) {
	now := time.Now()
	return m.sign(JWTClaims{
		UserID:    userID,
		Role:      role,
		TokenType: ClaimTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	})
}

// GenerateRefreshToken signs a refresh token without role information
func (m *JWTManager) GenerateRefreshToken(email, userID string) (string, error) {
	now := time.Now()
	return m.sign(JWTClaims{
		UserID:    userID,
		TokenType: ClaimTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	})
}

// Verify checks signature and expiry and returns the claims. No store is
// consulted.
func (m *JWTManager) Verify(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignatureInvalid
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformedToken
		}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// ExtractClaim pulls a named claim out of a verified token. An absent claim
// is an error, never a silent zero value.
func (m *JWTManager) ExtractClaim(tokenString, name string) (string, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return "", err
	}

	var value string
	switch name {
	case "sub", "email":
		value = claims.Subject
	case "userId":
		value = claims.UserID
	case "role":
		value = claims.Role
	case "tokenType":
		value = claims.TokenType
	default:
		return "", ErrClaimMissing
	}
	if value == "" {
		return "", ErrClaimMissing
	}
	return value, nil
}

// IsAccessToken reports whether a verified token carries the access kind
func (m *JWTManager) IsAccessToken(tokenString string) (bool, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return false, err
	}
	return claims.TokenType == ClaimTypeAccess, nil
}

// IsRefreshToken reports whether a verified token carries the refresh kind
func (m *JWTManager) IsRefreshToken(tokenString string) (bool, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return false, err
	}
	return claims.TokenType == ClaimTypeRefresh, nil
}
