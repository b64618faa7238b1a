package mailer

import (
	"context"
	"fmt"
	"sync"
)

// Fake records sent messages for tests and for deployments without SMTP
// configured.
type Fake struct {
	mu   sync.Mutex
	sent []Message

	// Err, when set, is returned by every Send call.
	Err error
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Send(_ context.Context, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("fake-%d", len(f.sent)), nil
}

// Sent returns a copy of all recorded messages.
func (f *Fake) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// Reset clears recorded messages and the injected error.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.Err = nil
}
