package users_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/carnetdigital/carnet-api/internal/auth"
	"github.com/carnetdigital/carnet-api/internal/config"
	"github.com/carnetdigital/carnet-api/internal/database"
	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *users.Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "users-test.db")

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return users.NewService(users.NewSQLStore(db, "sqlite"), auth.NewBcryptHasher())
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Lovelace", "a@x.com", "password123")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, models.StatusPending, user.Status)
	assert.True(t, user.Active)
	assert.NotEqual(t, "password123", user.Password)

	hasher := auth.NewBcryptHasher()
	assert.True(t, hasher.Matches("password123", user.Password))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "Lovelace", "a@x.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Grace", "Hopper", "a@x.com", "different")
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestDeletedAccountKeepsEmailReserved(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Lovelace", "a@x.com", "password123")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, user.ID))

	// The row is gone from lookups but its address stays taken
	_, err = svc.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, users.ErrUserNotFound)

	_, err = svc.Register(ctx, "Grace", "Hopper", "a@x.com", "different")
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestActivateDeactivate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Lovelace", "a@x.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, user.ID))
	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.True(t, got.Active)
	assert.True(t, got.CanLogin())

	require.NoError(t, svc.Deactivate(ctx, user.ID))
	got, err = svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.False(t, got.Active)
	assert.False(t, got.CanLogin())
}

func TestLifecycleOnMissingUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Activate(ctx, "no-such-id"), users.ErrUserNotFound)
	assert.ErrorIs(t, svc.Deactivate(ctx, "no-such-id"), users.ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "no-such-id"), users.ErrUserNotFound)

	_, err := svc.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestDeleteTwice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Lovelace", "a@x.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))
	assert.ErrorIs(t, svc.Delete(ctx, user.ID), users.ErrUserNotFound)
}
