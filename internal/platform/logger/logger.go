package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Production keeps the level at
// info; request handlers attach request_id and never log payload contents.
func New(environment string) *slog.Logger {
	level := slog.LevelDebug
	if environment == "production" {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
