// Package dedupe remembers recently processed submission ids so that a user
// double-clicking the submit button, or a flaky network retrying the request,
// does not produce two registrations, two sets of uploads and two emails.
package dedupe

import (
	"context"
	"time"
)

// TTL is how long a processed submission id is remembered. After this window
// a resubmission with the same id is treated as a brand new registration.
const TTL = 30 * time.Minute

// Record is the outcome stored for a completed submission. Duplicates are
// answered from it without touching storage or email again.
type Record struct {
	RegistrationID string    `json:"registration_id"`
	ProtocolNumber string    `json:"protocol_number"`
	Attachments    int       `json:"attachments"`
	StoredAt       time.Time `json:"stored_at"`
}

// Store tracks submission ids over a fixed retention window. Implementations
// must make Acquire atomic with respect to concurrent callers: of two
// requests racing on the same id, exactly one may win the reservation.
type Store interface {
	// Acquire reserves id for processing. It returns ok=true when the
	// caller won the reservation and should run the pipeline. When the id
	// was already completed within the window, ok is false and the stored
	// record is returned; for an id still being processed by another
	// request, ok is false and the record is nil.
	Acquire(ctx context.Context, id string, now time.Time) (rec *Record, ok bool, err error)

	// Complete replaces the reservation with the finished record, starting
	// the retention window.
	Complete(ctx context.Context, id string, rec Record) error

	// Release drops a reservation after a failed pipeline run so the
	// client may retry with the same submission id.
	Release(ctx context.Context, id string) error
}
