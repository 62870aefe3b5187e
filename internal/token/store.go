package token

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/carnetdigital/carnet-api/internal/database"
	"github.com/carnetdigital/carnet-api/internal/models"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

// Store defines the persistence operations the token manager needs
type Store interface {
	Insert(ctx context.Context, t *models.Token) error
	FindByID(ctx context.Context, id string) (*models.Token, error)
	FindByValue(ctx context.Context, value string) (*models.Token, error)
	FindByUser(ctx context.Context, userID string) ([]*models.Token, error)
	MarkUsed(ctx context.Context, id string) error
	MarkUsedByValue(ctx context.Context, value string) error
	InvalidateByUser(ctx context.Context, userID string) (int64, error)
	InvalidateByUserAndType(ctx context.Context, userID string, tokenType models.TokenType) (int64, error)
	SoftDelete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ValueExists(ctx context.Context, value string) (bool, error)
}

// Soft-deleted rows are invisible to every query below except the expired
// sweep, which purges by expiry alone.
const activeFilter = "deleted_at IS NULL"

const tokenColumns = "id, user_id, token, token_type, used, expires_at, created_at, updated_at, deleted_at"

// SQLStore implements Store on database/sql for the sqlite and postgres
// backends
type SQLStore struct {
	db     *sql.DB
	dbType string
}

// NewSQLStore creates a new SQLStore
func NewSQLStore(db *sql.DB, dbType string) *SQLStore {
	return &SQLStore{db: db, dbType: dbType}
}

func (s *SQLStore) rebind(query string) string {
	return database.Rebind(s.dbType, query)
}

// Insert stores a new token row. The unique index on the value column is the
// final guard against colliding values.
func (s *SQLStore) Insert(ctx context.Context, t *models.Token) error {
	query := s.rebind(`INSERT INTO tokens (id, user_id, token, token_type, used, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Value, t.Type, t.Used, t.ExpiresAt, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *SQLStore) scanToken(row *sql.Row) (*models.Token, error) {
	t := &models.Token{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.Value, &t.Type, &t.Used,
		&t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindByID retrieves a token by id, excluding soft-deleted rows
func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Token, error) {
	query := s.rebind("SELECT " + tokenColumns + " FROM tokens WHERE id = ? AND " + activeFilter)
	return s.scanToken(s.db.QueryRowContext(ctx, query, id))
}

// FindByValue retrieves a token by its opaque value, excluding soft-deleted
// rows
func (s *SQLStore) FindByValue(ctx context.Context, value string) (*models.Token, error) {
	query := s.rebind("SELECT " + tokenColumns + " FROM tokens WHERE token = ? AND " + activeFilter)
	return s.scanToken(s.db.QueryRowContext(ctx, query, value))
}

// FindByUser retrieves all active-queryable tokens owned by a user
func (s *SQLStore) FindByUser(ctx context.Context, userID string) ([]*models.Token, error) {
	query := s.rebind("SELECT " + tokenColumns + " FROM tokens WHERE user_id = ? AND " + activeFilter + " ORDER BY created_at DESC")

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		t := &models.Token{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Value, &t.Type, &t.Used,
			&t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *SQLStore) markUsed(ctx context.Context, column, key string) error {
	query := s.rebind("UPDATE tokens SET used = TRUE, updated_at = ? WHERE " + column + " = ? AND " + activeFilter)

	result, err := s.db.ExecContext(ctx, query, time.Now(), key)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// MarkUsed flips the used flag by token id. Calling it on an already-used
// token succeeds; the flag is one-way.
func (s *SQLStore) MarkUsed(ctx context.Context, id string) error {
	return s.markUsed(ctx, "id", id)
}

// MarkUsedByValue flips the used flag by opaque value
func (s *SQLStore) MarkUsedByValue(ctx context.Context, value string) error {
	return s.markUsed(ctx, "token", value)
}

// InvalidateByUser marks every token owned by a user as used and returns the
// number of rows touched. Zero matches is not an error.
func (s *SQLStore) InvalidateByUser(ctx context.Context, userID string) (int64, error) {
	query := s.rebind("UPDATE tokens SET used = TRUE, updated_at = ? WHERE user_id = ? AND " + activeFilter)

	result, err := s.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// InvalidateByUserAndType marks a user's tokens of one type as used
func (s *SQLStore) InvalidateByUserAndType(ctx context.Context, userID string, tokenType models.TokenType) (int64, error) {
	query := s.rebind("UPDATE tokens SET used = TRUE, updated_at = ? WHERE user_id = ? AND token_type = ? AND " + activeFilter)

	result, err := s.db.ExecContext(ctx, query, time.Now(), userID, tokenType)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SoftDelete hides a token from all active queries while keeping the row
func (s *SQLStore) SoftDelete(ctx context.Context, id string) error {
	query := s.rebind("UPDATE tokens SET deleted_at = ?, updated_at = ? WHERE id = ? AND " + activeFilter)

	now := time.Now()
	result, err := s.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteExpired hard-deletes every row past its expiry, soft-deleted or not,
// and returns the count removed
func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := s.rebind("DELETE FROM tokens WHERE expires_at < ?")

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ValueExists reports whether an active token row already carries the value
func (s *SQLStore) ValueExists(ctx context.Context, value string) (bool, error) {
	query := s.rebind("SELECT COUNT(1) FROM tokens WHERE token = ? AND " + activeFilter)

	var count int
	if err := s.db.QueryRowContext(ctx, query, value).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
