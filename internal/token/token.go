// Package token issues and stores the opaque upload tokens that gate the
// second step of the split registration flow: the applicant submits the form
// first, receives a token, and sends documents later with the token attached.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"solidum/internal/registration/models"
)

// TTL is how long a minted token stays usable before the applicant must
// restart the flow.
const TTL = 24 * time.Hour

// Data is the validated form held server-side while the token is live.
type Data struct {
	Form        *models.Form       `json:"form"`
	AccountType models.AccountType `json:"account_type"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// Expired reports whether the token lifetime has passed at the given instant.
func (d Data) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Store persists token payloads for the lifetime of the token.
type Store interface {
	// Put saves the payload under the token value.
	Put(ctx context.Context, token string, data Data) error

	// Get loads the payload. Unknown tokens return sentinel.ErrNotFound;
	// expired ones are removed and return sentinel.ErrExpired.
	Get(ctx context.Context, token string, now time.Time) (Data, error)

	// Delete removes the token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// New mints a 256-bit random token encoded as lowercase hex.
func New() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
