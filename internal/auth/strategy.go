package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/token"
)

// OpaqueIssuer is the legacy DB-backed strategy: every issued token is a
// store row and the store is the source of truth for validity. One active
// session per token type: issuing a pair invalidates the previous one.
type OpaqueIssuer struct {
	tokens *token.Service
	users  UserFinder
}

// NewOpaqueIssuer creates the DB-backed issuer
func NewOpaqueIssuer(tokens *token.Service, finder UserFinder) *OpaqueIssuer {
	return &OpaqueIssuer{tokens: tokens, users: finder}
}

// ExpiresIn reports the access-token default lifetime
func (i *OpaqueIssuer) ExpiresIn() int64 {
	return int64((24 * time.Hour).Seconds())
}

// IssuePair invalidates the user's previous access and refresh tokens, then
// stores a fresh pair
func (i *OpaqueIssuer) IssuePair(ctx context.Context, user *models.User) (string, string, error) {
	for _, typ := range []models.TokenType{models.TokenTypeAccess, models.TokenTypeRefresh} {
		if _, err := i.tokens.InvalidateForUserByType(ctx, user.ID, typ); err != nil {
			return "", "", err
		}
	}

	access, err := i.tokens.Create(ctx, user.ID, models.TokenTypeAccess, nil)
	if err != nil {
		return "", "", err
	}
	refresh, err := i.tokens.Create(ctx, user.ID, models.TokenTypeRefresh, nil)
	if err != nil {
		return "", "", err
	}
	return access.Value, refresh.Value, nil
}

// Refresh validates a stored refresh token and issues a new access token.
// Kind is checked before state: an access-typed value is rejected as the
// wrong kind even when also used or expired.
func (i *OpaqueIssuer) Refresh(ctx context.Context, refreshValue string) (string, *models.User, error) {
	stored, err := i.tokens.GetByValue(ctx, refreshValue)
	if errors.Is(err, token.ErrTokenNotFound) {
		return "", nil, ErrMalformedToken
	}
	if err != nil {
		return "", nil, err
	}

	if stored.Type != models.TokenTypeRefresh {
		return "", nil, ErrWrongTokenKind
	}
	if stored.Used {
		return "", nil, ErrTokenAlreadyUsed
	}
	if stored.IsExpired(time.Now()) {
		return "", nil, ErrTokenExpired
	}

	user, err := i.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return "", nil, err
	}

	access, err := i.tokens.Create(ctx, user.ID, models.TokenTypeAccess, nil)
	if err != nil {
		return "", nil, err
	}
	return access.Value, user, nil
}

// Logout marks the access token used. All errors are swallowed.
func (i *OpaqueIssuer) Logout(ctx context.Context, accessValue string) {
	if err := i.tokens.MarkUsedByValue(ctx, accessValue); err != nil {
		log.Printf("logout: ignoring token invalidation error: %v", err)
	}
}

// JWTIssuer is the stateless strategy. Nothing is persisted; validity is
// signature plus expiry. Logout is deliberately a no-op: an issued token
// stays valid until its natural expiry, and callers needing revocation must
// layer a denylist elsewhere.
type JWTIssuer struct {
	jwt   *JWTManager
	users UserFinder
}

// NewJWTIssuer creates the stateless issuer
func NewJWTIssuer(manager *JWTManager, finder UserFinder) *JWTIssuer {
	return &JWTIssuer{jwt: manager, users: finder}
}

// ExpiresIn reports the configured access-token lifetime
func (i *JWTIssuer) ExpiresIn() int64 {
	return int64(i.jwt.AccessTTL().Seconds())
}

// IssuePair signs a fresh access+refresh pair
func (i *JWTIssuer) IssuePair(_ context.Context, user *models.User) (string, string, error) {
	access, err := i.jwt.GenerateAccessToken(user.Email, user.ID, string(user.Role))
	if err != nil {
		return "", "", err
	}
	refresh, err := i.jwt.GenerateRefreshToken(user.Email, user.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Refresh verifies the refresh token and signs a new access token
func (i *JWTIssuer) Refresh(ctx context.Context, refreshValue string) (string, *models.User, error) {
	claims, err := i.jwt.Verify(refreshValue)
	if err != nil {
		return "", nil, err
	}
	if claims.TokenType != ClaimTypeRefresh {
		return "", nil, ErrWrongTokenKind
	}

	user, err := i.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}
	if !user.CanLogin() {
		return "", nil, ErrInactiveAccount
	}

	access, err := i.jwt.GenerateAccessToken(user.Email, user.ID, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	return access, user, nil
}

// Logout is a client-side-only operation under the stateless strategy
func (i *JWTIssuer) Logout(context.Context, string) {}
