package token

import (
	"time"

	"github.com/carnetdigital/carnet-api/internal/models"
)

// TokenResponse is the public shape of a stored token
type TokenResponse struct {
	ID        string           `json:"id"`
	Token     string           `json:"token"`
	TokenType models.TokenType `json:"tokenType"`
	Used      bool             `json:"used"`
	ExpiresAt time.Time        `json:"expiresAt"`
	CreatedAt time.Time        `json:"createdAt"`
	IsExpired bool             `json:"isExpired"`
	IsValid   bool             `json:"isValid"`
}

// TokenDetailResponse adds owner and update information
type TokenDetailResponse struct {
	TokenResponse
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidationResponse is the tri-state result of validating an opaque value
type ValidationResponse struct {
	Valid     bool             `json:"valid"`
	Message   string           `json:"message"`
	UserID    string           `json:"userId,omitempty"`
	UserEmail string           `json:"userEmail,omitempty"`
	TokenType models.TokenType `json:"tokenType,omitempty"`
	ExpiresAt time.Time        `json:"expiresAt,omitempty"`
}

// NewTokenResponse maps a token row to its public shape, deriving expiry and
// validity at the given time
func NewTokenResponse(t *models.Token, now time.Time) TokenResponse {
	return TokenResponse{
		ID:        t.ID,
		Token:     t.Value,
		TokenType: t.Type,
		Used:      t.Used,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
		IsExpired: t.IsExpired(now),
		IsValid:   t.IsValid(now),
	}
}

// NewTokenDetailResponse maps a token row plus its owner to the detail shape
func NewTokenDetailResponse(t *models.Token, owner *models.User, now time.Time) TokenDetailResponse {
	return TokenDetailResponse{
		TokenResponse: NewTokenResponse(t, now),
		UserID:        t.UserID,
		UserEmail:     owner.Email,
		UpdatedAt:     t.UpdatedAt,
	}
}
