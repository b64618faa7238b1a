// Package store persists the back-office user allowlist. Holding a valid
// access token is not enough to reach the admin API; the email inside the
// token must also be an active row here.
package store

import (
	"context"
	"time"
)

// User is one back-office operator.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Store looks up back-office users.
type Store interface {
	// GetByEmail loads an active user by email, case-insensitively.
	// Unknown or inactive users return sentinel.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
