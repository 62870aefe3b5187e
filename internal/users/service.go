package users

import (
	"context"
	"time"

	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/google/uuid"
)

// Hasher is the credential-hashing primitive. The bcrypt implementation
// lives in the auth package.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, digest string) bool
}

// Service wraps account lifecycle operations over a Store
type Service struct {
	store  Store
	hasher Hasher
}

// NewService creates a new user service
func NewService(store Store, hasher Hasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Register creates a new account. The email must be free across all rows,
// soft-deleted ones included.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	taken, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New().String(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  hash,
		Role:      models.RoleStudent,
		Status:    models.StatusPending,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a non-deleted user
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

// GetByEmail retrieves a non-deleted user
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// Activate re-enables an account
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.store.SetActive(ctx, id, true, models.StatusActive)
}

// Deactivate locks an account out without deleting it
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.store.SetActive(ctx, id, false, models.StatusInactive)
}

// Delete soft-deletes an account; its email stays reserved
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.SoftDelete(ctx, id)
}
