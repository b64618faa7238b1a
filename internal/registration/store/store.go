// Package store persists registrations and their uploaded file records.
// Stores are pure persistence; filtering beyond what SQL expresses cheaply
// (free-text search, pagination) lives in the services that call them.
package store

import (
	"context"
	"time"

	"solidum/internal/registration/models"
)

// Filter narrows List results. Zero values mean "no constraint". From and To
// bound CreatedAt inclusively; callers are expected to extend To to the end
// of the requested day before passing it in.
type Filter struct {
	Type   models.AccountType
	Status models.Status
	From   *time.Time
	To     *time.Time
}

// Store is the registration persistence contract.
type Store interface {
	// CreateRegistration inserts a new registration row.
	CreateRegistration(ctx context.Context, r *models.Registration) error

	// GetRegistration loads one registration by id, returning
	// sentinel.ErrNotFound for unknown ids.
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)

	// DeleteRegistration removes a registration and all of its file rows.
	// Used by the intake saga to roll back a partially stored submission.
	DeleteRegistration(ctx context.Context, id string) error

	// AddFile records an uploaded document belonging to a registration.
	AddFile(ctx context.Context, f *models.File) error

	// ListFiles returns the file rows of a registration in insertion order.
	ListFiles(ctx context.Context, registrationID string) ([]models.File, error)

	// List returns registrations matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]models.Registration, error)

	// UpdateStatus transitions a registration and returns the updated row,
	// or sentinel.ErrNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Registration, error)
}
