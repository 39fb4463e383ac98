package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithScan returns a logger with prescription-scan context fields attached.
// Use this for all logging within one scan request.
func WithScan(scanID, userID string) *slog.Logger {
	return slog.With(
		"scan_id", scanID,
		"user_id", userID,
	)
}

// WithMedication returns a logger scoped to a single medication record.
func WithMedication(logger *slog.Logger, medicationID, name string) *slog.Logger {
	return logger.With(
		"medication_id", medicationID,
		"medication_name", name,
	)
}
