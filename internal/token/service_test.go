package token

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/carnetdigital/carnet-api/internal/config"
	"github.com/carnetdigital/carnet-api/internal/database"
	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) (*SQLStore, *users.SQLStore) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "token-test.db")

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLStore(db, "sqlite"), users.NewSQLStore(db, "sqlite")
}

func seedUser(t *testing.T, store *users.SQLStore, email string) *models.User {
	t.Helper()
	now := time.Now()
	u := &models.User{
		ID:        uuid.New().String(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "$2a$10$irrelevant",
		Role:      models.RoleStudent,
		Status:    models.StatusActive,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func newTestService(t *testing.T) (*Service, *SQLStore, *users.SQLStore, *models.User) {
	t.Helper()
	tokens, userStore := newTestStores(t)
	owner := seedUser(t, userStore, "owner@x.com")
	return NewService(tokens, userStore), tokens, userStore, owner
}

func TestCreateAppliesDefaultExpiry(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	tests := []struct {
		tokenType models.TokenType
		want      time.Time
	}{
		{models.TokenTypeAccess, fixed.Add(24 * time.Hour)},
		{models.TokenTypeRefresh, fixed.Add(7 * 24 * time.Hour)},
		{models.TokenTypeReset, fixed.Add(24 * time.Hour)},
		{models.TokenTypeVerification, fixed.Add(48 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(string(tt.tokenType), func(t *testing.T) {
			tok, err := svc.Create(ctx, owner.ID, tt.tokenType, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok.ExpiresAt)
			assert.False(t, tok.Used)
			assert.Len(t, tok.Value, 64)
		})
	}
}

func TestCreateWithExplicitExpiry(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	expiry := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	tok, err := svc.Create(ctx, owner.ID, models.TokenTypeReset, &expiry)
	require.NoError(t, err)
	assert.Equal(t, expiry, tok.ExpiresAt.UTC().Truncate(time.Second))
}

func TestCreateUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New().String(), models.TokenTypeAccess, nil)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestCreateUnknownType(t *testing.T) {
	svc, _, _, owner := newTestService(t)

	_, err := svc.Create(context.Background(), owner.ID, models.TokenType("session"), nil)
	assert.Error(t, err)
}

func TestValidateOrdering(t *testing.T) {
	svc, tokens, _, owner := newTestService(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		resp, err := svc.Validate(ctx, "no-such-value")
		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Equal(t, MessageNotFound, resp.Message)
	})

	t.Run("valid", func(t *testing.T) {
		tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
		require.NoError(t, err)

		resp, err := svc.Validate(ctx, tok.Value)
		require.NoError(t, err)
		assert.True(t, resp.Valid)
		assert.Equal(t, MessageValid, resp.Message)
		assert.Equal(t, owner.ID, resp.UserID)
		assert.Equal(t, owner.Email, resp.UserEmail)
		assert.Equal(t, models.TokenTypeAccess, resp.TokenType)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, &past)
		require.NoError(t, err)

		resp, err := svc.Validate(ctx, tok.Value)
		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Equal(t, MessageExpired, resp.Message)
	})

	t.Run("already used", func(t *testing.T) {
		tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
		require.NoError(t, err)
		require.NoError(t, tokens.MarkUsed(ctx, tok.ID))

		resp, err := svc.Validate(ctx, tok.Value)
		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Equal(t, MessageAlreadyUsed, resp.Message)
	})

	t.Run("used wins over expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, &past)
		require.NoError(t, err)
		require.NoError(t, tokens.MarkUsed(ctx, tok.ID))

		resp, err := svc.Validate(ctx, tok.Value)
		require.NoError(t, err)
		assert.Equal(t, MessageAlreadyUsed, resp.Message)
	})
}

func TestValidateInactiveOwner(t *testing.T) {
	svc, _, userStore, owner := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
	require.NoError(t, err)

	require.NoError(t, userStore.SetActive(ctx, owner.ID, false, models.StatusInactive))

	resp, err := svc.Validate(ctx, tok.Value)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, MessageNotFound, resp.Message)
}

func TestValidateDeletedOwner(t *testing.T) {
	svc, _, userStore, owner := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
	require.NoError(t, err)

	require.NoError(t, userStore.SoftDelete(ctx, owner.ID))

	resp, err := svc.Validate(ctx, tok.Value)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, MessageNotFound, resp.Message)
}

func TestIsValid(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Create(ctx, owner.ID, models.TokenTypeVerification, nil)
	require.NoError(t, err)

	ok, err := svc.IsValid(ctx, tok.Value)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsValid(ctx, "garbage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkUsedIdempotent(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Create(ctx, owner.ID, models.TokenTypeReset, nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkUsed(ctx, tok.ID))
	// Second call stays a success, the flag is one-way
	require.NoError(t, svc.MarkUsed(ctx, tok.ID))

	got, err := svc.GetByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.True(t, got.Used)
}

func TestMarkUsedMissingToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.MarkUsed(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrTokenNotFound)

	err = svc.MarkUsedByValue(context.Background(), "no-such-value")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestInvalidateAllForUser(t *testing.T) {
	svc, _, userStore, owner := newTestService(t)
	ctx := context.Background()
	other := seedUser(t, userStore, "other@x.com")

	for _, typ := range []models.TokenType{models.TokenTypeAccess, models.TokenTypeRefresh, models.TokenTypeReset} {
		_, err := svc.Create(ctx, owner.ID, typ, nil)
		require.NoError(t, err)
	}
	otherTok, err := svc.Create(ctx, other.ID, models.TokenTypeAccess, nil)
	require.NoError(t, err)

	count, err := svc.InvalidateAllForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// The other user's token is untouched
	got, err := svc.GetByID(ctx, otherTok.ID)
	require.NoError(t, err)
	assert.False(t, got.Used)

	// No matches is not an error
	count, err = svc.InvalidateAllForUser(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInvalidateForUserByType(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	access, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
	require.NoError(t, err)
	refresh, err := svc.Create(ctx, owner.ID, models.TokenTypeRefresh, nil)
	require.NoError(t, err)

	count, err := svc.InvalidateForUserByType(ctx, owner.ID, models.TokenTypeAccess)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	gotAccess, err := svc.GetByID(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, gotAccess.Used)

	gotRefresh, err := svc.GetByID(ctx, refresh.ID)
	require.NoError(t, err)
	assert.False(t, gotRefresh.Used)
}

func TestCleanExpired(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, &past)
		require.NoError(t, err)
	}
	alive, err := svc.Create(ctx, owner.ID, models.TokenTypeRefresh, nil)
	require.NoError(t, err)

	// An expired-and-soft-deleted row is purged too
	expiredDeleted, err := svc.Create(ctx, owner.ID, models.TokenTypeReset, &past)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, expiredDeleted.ID))

	count, err := svc.CleanExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	got, err := svc.GetByID(ctx, alive.ID)
	require.NoError(t, err)
	assert.Equal(t, alive.ID, got.ID)

	// A second sweep finds nothing
	count, err = svc.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSoftDeleteHidesToken(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	tok, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, tok.ID))

	_, err = svc.GetByID(ctx, tok.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	resp, err := svc.Validate(ctx, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, MessageNotFound, resp.Message)

	// Double delete errors
	assert.ErrorIs(t, svc.Delete(ctx, tok.ID), ErrTokenNotFound)
}

func TestListForUserExcludesDeleted(t *testing.T) {
	svc, _, _, owner := newTestService(t)
	ctx := context.Background()

	kept, err := svc.Create(ctx, owner.ID, models.TokenTypeAccess, nil)
	require.NoError(t, err)
	dropped, err := svc.Create(ctx, owner.ID, models.TokenTypeRefresh, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, dropped.ID))

	list, err := svc.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)
}
