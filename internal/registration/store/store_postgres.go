package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"solidum/internal/registration/models"
	"solidum/pkg/platform/sentinel"
)

// PostgresStore persists registrations in PostgreSQL. The form payload and
// file metadata are stored as JSONB; file rows cascade on registration
// delete.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRegistration(ctx context.Context, r *models.Registration) error {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	query := `
		INSERT INTO registrations (id, account_type, status, protocol_number, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Type, r.Status, r.ProtocolNumber, payload, r.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	query := `
		SELECT id, account_type, status, protocol_number, payload, created_at
		FROM registrations
		WHERE id = $1
	`
	r, err := scanRegistration(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteRegistration(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddFile(ctx context.Context, f *models.File) error {
	metadata, err := json.Marshal(f.Metadata)
	if err != nil {
		return fmt.Errorf("encoding file metadata: %w", err)
	}
	query := `
		INSERT INTO registration_files (id, registration_id, file_type, storage_path, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		f.ID, f.RegistrationID, f.FileType, f.StoragePath, metadata, f.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add file: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFiles(ctx context.Context, registrationID string) ([]models.File, error) {
	query := `
		SELECT id, registration_id, file_type, storage_path, metadata, created_at
		FROM registration_files
		WHERE registration_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var f models.File
		var metadata []byte
		if err := rows.Scan(&f.ID, &f.RegistrationID, &f.FileType, &f.StoragePath, &metadata, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		if err := json.Unmarshal(metadata, &f.Metadata); err != nil {
			return nil, fmt.Errorf("decoding file metadata: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]models.Registration, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Type != "" {
		conds = append(conds, "account_type = "+arg(filter.Type))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= "+arg(*filter.To))
	}

	query := `
		SELECT id, account_type, status, protocol_number, payload, created_at
		FROM registrations
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		r, err := scanRegistrationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Registration, error) {
	query := `
		UPDATE registrations
		SET status = $2
		WHERE id = $1
		RETURNING id, account_type, status, protocol_number, payload, created_at
	`
	r, err := scanRegistration(s.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var r models.Registration
	var payload []byte
	if err := row.Scan(&r.ID, &r.Type, &r.Status, &r.ProtocolNumber, &payload, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &r.Payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return &r, nil
}

func scanRegistrationRows(rows *sql.Rows) (*models.Registration, error) {
	r, err := scanRegistration(rows)
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	return r, nil
}
