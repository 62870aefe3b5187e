package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/users"
	"github.com/google/uuid"
)

// Validation messages, fixed wording. The check order below is part of the
// contract: used wins over expired.
const (
	MessageNotFound    = "not found"
	MessageAlreadyUsed = "already used"
	MessageExpired     = "expired"
	MessageValid       = "valid"
)

var ErrValueCollision = errors.New("could not generate a unique token value")

// OwnerDirectory resolves token owners. users.SQLStore satisfies it.
type OwnerDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Service manages DB-backed opaque tokens; the store is the source of truth
// for validity
type Service struct {
	store  Store
	owners OwnerDirectory
	now    func() time.Time
}

// NewService creates a new token service
func NewService(store Store, owners OwnerDirectory) *Service {
	return &Service{
		store:  store,
		owners: owners,
		now:    time.Now,
	}
}

// generateValue produces an unguessable 64-hex-char opaque value
func generateValue() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "") +
		strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Create issues a new opaque token for a user. When expiresAt is nil the
// per-type default offset applies. The value is checked against existing
// active rows before insert; the unique index backstops concurrent creates.
func (s *Service) Create(ctx context.Context, userID string, tokenType models.TokenType, expiresAt *time.Time) (*models.Token, error) {
	if !models.ValidTokenType(tokenType) {
		return nil, fmt.Errorf("unknown token type: %s", tokenType)
	}

	if _, err := s.owners.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	value, err := s.uniqueValue(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiry := models.DefaultExpiry(tokenType, now)
	if expiresAt != nil {
		expiry = *expiresAt
	}

	t := &models.Token{
		ID:        uuid.New().String(),
		Value:     value,
		Type:      tokenType,
		Used:      false,
		UserID:    userID,
		ExpiresAt: expiry,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) uniqueValue(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		value := generateValue()
		exists, err := s.store.ValueExists(ctx, value)
		if err != nil {
			return "", err
		}
		if !exists {
			return value, nil
		}
	}
	return "", ErrValueCollision
}

// Validate looks up a token by value and reports its state. Pure read, no
// side effects. Order: not found, already used, expired, valid. A token
// that is both used and expired reports "already used".
func (s *Service) Validate(ctx context.Context, value string) (*ValidationResponse, error) {
	t, err := s.store.FindByValue(ctx, value)
	if errors.Is(err, ErrTokenNotFound) {
		return &ValidationResponse{Valid: false, Message: MessageNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	// A token whose owner is gone or locked out is unusable no matter its
	// own state. Reported as not found to avoid leaking account state.
	owner, err := s.owners.FindByID(ctx, t.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return &ValidationResponse{Valid: false, Message: MessageNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if !owner.CanLogin() {
		return &ValidationResponse{Valid: false, Message: MessageNotFound}, nil
	}

	resp := &ValidationResponse{
		UserID:    t.UserID,
		UserEmail: owner.Email,
		TokenType: t.Type,
		ExpiresAt: t.ExpiresAt,
	}

	switch {
	case t.Used:
		resp.Message = MessageAlreadyUsed
	case t.IsExpired(s.now()):
		resp.Message = MessageExpired
	default:
		resp.Valid = true
		resp.Message = MessageValid
	}
	return resp, nil
}

// IsValid is the boolean shortcut for Validate
func (s *Service) IsValid(ctx context.Context, value string) (bool, error) {
	resp, err := s.Validate(ctx, value)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// MarkUsed flips the used flag by id. Idempotent: a second call is a no-op
// success; only a missing token errors.
func (s *Service) MarkUsed(ctx context.Context, id string) error {
	return s.store.MarkUsed(ctx, id)
}

// MarkUsedByValue flips the used flag by opaque value
func (s *Service) MarkUsedByValue(ctx context.Context, value string) error {
	return s.store.MarkUsedByValue(ctx, value)
}

// InvalidateAllForUser marks every token of a user as used and returns the
// count affected. Zero matches succeeds.
func (s *Service) InvalidateAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.store.InvalidateByUser(ctx, userID)
}

// InvalidateForUserByType marks a user's tokens of one type as used
func (s *Service) InvalidateForUserByType(ctx context.Context, userID string, tokenType models.TokenType) (int64, error) {
	return s.store.InvalidateByUserAndType(ctx, userID, tokenType)
}

// CleanExpired hard-deletes every expired row, bypassing soft delete, and
// returns the count removed
func (s *Service) CleanExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

// Delete soft-deletes a single token
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.SoftDelete(ctx, id)
}

// GetByValue retrieves an active token row
func (s *Service) GetByValue(ctx context.Context, value string) (*models.Token, error) {
	return s.store.FindByValue(ctx, value)
}

// GetByID retrieves an active token row
func (s *Service) GetByID(ctx context.Context, id string) (*models.Token, error) {
	return s.store.FindByID(ctx, id)
}

// ListForUser retrieves all of a user's non-deleted tokens
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Token, error) {
	return s.store.FindByUser(ctx, userID)
}
