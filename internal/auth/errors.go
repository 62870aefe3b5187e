package auth

import "errors"

// Request-scoped logical failures. None are retried internally; transport
// maps them to status codes at the boundary.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrTokenAlreadyUsed   = errors.New("token already used")
	ErrTokenExpired       = errors.New("token has expired")
	ErrWrongTokenKind     = errors.New("wrong token kind")
	ErrSignatureInvalid   = errors.New("invalid token signature")
	ErrMalformedToken     = errors.New("malformed token")
	ErrClaimMissing       = errors.New("claim not present in token")
	ErrRateLimited        = errors.New("too many login attempts")
)
