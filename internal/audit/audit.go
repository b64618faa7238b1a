// Package audit keeps an append-only trail of accepted submissions, written
// to a local JSONL file and optionally mirrored to a Kafka topic for
// downstream compliance tooling.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"solidum/internal/registration/models"
)

// Entry is one accepted submission.
type Entry struct {
	ReceivedAt   time.Time          `json:"receivedAt"`
	AccountType  models.AccountType `json:"accountType"`
	SubmissionID string             `json:"submissionId,omitempty"`
	Attachments  []string           `json:"attachments"`
	Form         *models.Form       `json:"formData"`
	ClientIP     string             `json:"clientIp,omitempty"`
	Browser      string             `json:"browser,omitempty"`
	OS           string             `json:"os,omitempty"`
}

// WithClient annotates the entry with the client address and a parsed
// user agent string.
func (e Entry) WithClient(ip, rawUA string) Entry {
	e.ClientIP = ip
	if rawUA != "" {
		ua := useragent.New(rawUA)
		name, version := ua.Browser()
		if name != "" {
			e.Browser = name + " " + version
		}
		e.OS = ua.OS()
	}
	return e
}

// Sink receives audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Recorder fans an entry out to all configured sinks. Failures are logged
// and swallowed: the audit trail must never fail a registration.
type Recorder struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	for _, sink := range r.sinks {
		if err := sink.Record(ctx, e); err != nil {
			r.logger.Warn("audit sink failed",
				"error", err,
				"submission_id", e.SubmissionID,
			)
		}
	}
}

func (r *Recorder) Close() {
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil {
			r.logger.Warn("audit sink close failed", "error", err)
		}
	}
}
