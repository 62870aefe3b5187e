package token

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqlmock covers the SQL error paths the sqlite-backed service tests cannot
// reach

func TestMarkUsedNoRowsIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE tokens SET used = TRUE").
		WithArgs(sqlmock.AnyArg(), "missing-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewSQLStore(db, "sqlite")
	err = store.MarkUsed(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByValueQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM tokens WHERE token = ").
		WithArgs("v").
		WillReturnError(assert.AnError)

	store := NewSQLStore(db, "sqlite")
	_, err = store.FindByValue(context.Background(), "v")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}

func TestInvalidateByUserReturnsCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE tokens SET used = TRUE").
		WithArgs(sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	store := NewSQLStore(db, "sqlite")
	count, err := store.InvalidateByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestDeleteExpiredUsesHardDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("DELETE FROM tokens WHERE expires_at <").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))

	store := NewSQLStore(db, "sqlite")
	count, err := store.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Postgres stores must emit $n placeholders
	mock.ExpectExec(`UPDATE tokens SET used = TRUE, updated_at = \$1 WHERE id = \$2`).
		WithArgs(sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewSQLStore(db, "postgres")
	require.NoError(t, store.MarkUsed(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
