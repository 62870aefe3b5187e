package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/carnetdigital/carnet-api/internal/database"
	"github.com/carnetdigital/carnet-api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email exists")
)

// Store defines user persistence operations
type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// EmailExists checks soft-deleted rows too: a deleted account still
	// reserves its address
	EmailExists(ctx context.Context, email string) (bool, error)
	SetActive(ctx context.Context, id string, active bool, status models.UserStatus) error
	SoftDelete(ctx context.Context, id string) error
}

const userColumns = "id, first_name, last_name, email, password, role, status, active, created_at, updated_at, deleted_at"

// SQLStore implements Store on database/sql
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

// Create stores a new user row
func (s *SQLStore) Create(ctx context.Context, u *models.User) error {
	query := s.rebind(`INSERT INTO users (id, first_name, last_name, email, password, role, status, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Password,
		u.Role, u.Status, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password,
		&u.Role, &u.Status, &u.Active, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID retrieves a non-deleted user by id
func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id = ? AND deleted_at IS NULL")
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// FindByEmail retrieves a non-deleted user by email
func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE email = ? AND deleted_at IS NULL")
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// EmailExists reports whether any row, deleted or not, holds the email
func (s *SQLStore) EmailExists(ctx context.Context, email string) (bool, error) {
	query := s.rebind("SELECT COUNT(1) FROM users WHERE email = ?")

	var count int
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetActive updates the active flag and lifecycle status together
func (s *SQLStore) SetActive(ctx context.Context, id string, active bool, status models.UserStatus) error {
	query := s.rebind("UPDATE users SET active = ?, status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL")

	result, err := s.db.ExecContext(ctx, query, active, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SoftDelete marks a user deleted while keeping the row (and its email
// reservation)
func (s *SQLStore) SoftDelete(ctx context.Context, id string) error {
	query := s.rebind("UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL")

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
		return ErrUserNotFound
	}
	return nil
}
