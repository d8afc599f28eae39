package logging

import (
	"log/slog"
	"os"
)

// Init configures the process-wide slog default from LOG_LEVEL.
func Init(environment string) {
	level := slog.LevelInfo
	if environment == "production" {
		level = slog.LevelWarn
	}

	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch l {
		case "dev", "development", "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}),
	)
	slog.SetDefault(logger)
}
