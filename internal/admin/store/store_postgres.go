package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"solidum/pkg/platform/sentinel"
)

// PostgresStore reads the allowlist from the admin_users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, role, active, created_at
		FROM admin_users
		WHERE lower(email) = lower($1) AND active
	`
	var u User
	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return &u, nil
}
