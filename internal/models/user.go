package models

import (
	"time"
)

// UserRole is the authorization role assigned to an account
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student" // Default for new registrations
)

// UserStatus represents the lifecycle state of an account
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusPending  UserStatus = "pending" // Awaiting verification
)

// User represents an account in the system
type User struct {
	ID        string     `json:"id" db:"id"`
	FirstName string     `json:"firstName" db:"first_name"`
	LastName  string     `json:"lastName" db:"last_name"`
	Email     string     `json:"email" db:"email"`
	Password  string     `json:"-" db:"password"` // bcrypt hash, never sent to clients
	Role      UserRole   `json:"role" db:"role"`
	Status    UserStatus `json:"status" db:"status"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// CanLogin reports whether the account may authenticate. Deactivated and
// soft-deleted accounts are locked out regardless of credentials.
func (u *User) CanLogin() bool {
	return u.Active && u.Status != StatusInactive && u.DeletedAt == nil
}

// Summary is the user shape embedded in auth responses
type Summary struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
}

// Summarize builds the response summary for a user
func (u *User) Summarize() Summary {
	return Summary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
	}
}
