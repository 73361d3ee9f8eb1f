package cli

import (
	"log/slog"

	"github.com/raphaelgruber/chatmem-go/internal/config"
)

var sharedLogger *slog.Logger

// newLogger returns the process-wide logger, creating it on first use.
// Text to stderr for the person at the terminal, JSON to the log file.
func newLogger() *slog.Logger {
	if sharedLogger == nil {
		sharedLogger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	}
	return sharedLogger
}
