package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/token"
)

type contextKey string

const UserContextKey contextKey = "user"

// Principal is the authenticated caller attached to the request context
type Principal struct {
	UserID string
	Email  string
	Role   models.UserRole
}

// Authenticator turns a bearer access token into a Principal. One
// implementation per strategy.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenValue string) (*Principal, error)
}

// JWTAuthenticator verifies stateless access tokens
type JWTAuthenticator struct {
	jwt *JWTManager
}

// NewJWTAuthenticator creates a new JWTAuthenticator
func NewJWTAuthenticator(manager *JWTManager) *JWTAuthenticator {
	return &JWTAuthenticator{jwt: manager}
}

// Authenticate verifies the token and requires the access kind
func (a *JWTAuthenticator) Authenticate(_ context.Context, tokenValue string) (*Principal, error) {
	claims, err := a.jwt.Verify(tokenValue)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != ClaimTypeAccess {
		return nil, ErrWrongTokenKind
	}
	return &Principal{
		UserID: claims.UserID,
		Email:  claims.Subject,
		Role:   models.UserRole(claims.Role),
	}, nil
}

// OpaqueAuthenticator validates access tokens against the store
type OpaqueAuthenticator struct {
	tokens *token.Service
	users  UserFinder
}

// NewOpaqueAuthenticator creates a new OpaqueAuthenticator
func NewOpaqueAuthenticator(tokens *token.Service, finder UserFinder) *OpaqueAuthenticator {
	return &OpaqueAuthenticator{tokens: tokens, users: finder}
}

// Authenticate looks the value up and requires a valid access-typed row
func (a *OpaqueAuthenticator) Authenticate(ctx context.Context, tokenValue string) (*Principal, error) {
	resp, err := a.tokens.Validate(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, ErrInvalidCredentials
	}
	if resp.TokenType != models.TokenTypeAccess {
		return nil, ErrWrongTokenKind
	}

	user, err := a.users.GetByID(ctx, resp.UserID)
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// Middleware authenticates the Bearer token and stores the Principal in the
// request context
func Middleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, ok := BearerToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), value)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects principals without the given role
func RequireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok || principal.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// GetPrincipal retrieves the authenticated caller from the context
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(UserContextKey).(*Principal)
	return principal, ok
}
