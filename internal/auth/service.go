package auth

import (
	"context"
	"errors"
	"log"

	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/users"
)

// AuthTokenResponse bundles a fresh token pair with the account summary
type AuthTokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int64          `json:"expiresIn"` // seconds
	TokenType    string         `json:"tokenType"` // always "Bearer"
	User         models.Summary `json:"user"`
}

// TokenIssuer is the seam between the two token strategies. Exactly one
// implementation is active per process, selected by configuration: the
// stateless JWT issuer (production) or the DB-backed opaque issuer (legacy).
type TokenIssuer interface {
	// IssuePair creates a fresh access+refresh pair for a user
	IssuePair(ctx context.Context, user *models.User) (access, refresh string, err error)
	// Refresh validates a refresh token and returns a new access token;
	// the refresh token itself is not rotated
	Refresh(ctx context.Context, refreshValue string) (access string, user *models.User, err error)
	// Logout best-effort invalidates an access token. Failures are
	// swallowed: logout always succeeds.
	Logout(ctx context.Context, accessValue string)
	// ExpiresIn is the access-token lifetime in seconds
	ExpiresIn() int64
}

// UserFinder resolves accounts for the login flow. users.Service satisfies
// it.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordMatcher is the verification half of the credential-hashing
// primitive
type PasswordMatcher interface {
	Matches(plaintext, digest string) bool
}

// Coordinator orchestrates login, refresh and logout over the active token
// strategy
type Coordinator struct {
	users   UserFinder
	matcher PasswordMatcher
	issuer  TokenIssuer
	limiter *LoginLimiter // nil disables rate limiting
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(finder UserFinder, matcher PasswordMatcher, issuer TokenIssuer, limiter *LoginLimiter) *Coordinator {
	return &Coordinator{
		users:   finder,
		matcher: matcher,
		issuer:  issuer,
		limiter: limiter,
	}
}

func (c *Coordinator) respond(access, refresh string, user *models.User) *AuthTokenResponse {
	return &AuthTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    c.issuer.ExpiresIn(),
		TokenType:    "Bearer",
		User:         user.Summarize(),
	}
}

// Login verifies credentials and issues a fresh token pair. An unknown email
// and a wrong password are indistinguishable to the caller.
func (c *Coordinator) Login(ctx context.Context, email, password, clientKey string) (*AuthTokenResponse, error) {
	if c.limiter != nil {
		allowed, err := c.limiter.Allow(ctx, email, clientKey)
		if err != nil {
			// A broken limiter must not lock everyone out
			log.Printf("login rate limiter unavailable: %v", err)
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	user, err := c.users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !c.matcher.Matches(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	if !user.CanLogin() {
		return nil, ErrInactiveAccount
	}

	access, refresh, err := c.issuer.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return c.respond(access, refresh, user), nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is returned unchanged.
func (c *Coordinator) Refresh(ctx context.Context, refreshValue string) (*AuthTokenResponse, error) {
	access, user, err := c.issuer.Refresh(ctx, refreshValue)
	if err != nil {
		return nil, err
	}
	return c.respond(access, refreshValue, user), nil
}

// Logout invalidates an access token where the strategy supports it. It
// never fails: garbage, expired or already-used tokens all report success.
func (c *Coordinator) Logout(ctx context.Context, accessValue string) {
	c.issuer.Logout(ctx, accessValue)
}
