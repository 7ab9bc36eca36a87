package texshare

import (
	"log/slog"

	"github.com/gogpu/texshare/internal/logx"
)

// SetLogger configures the logger for texshare and all its sub-packages.
// By default, texshare produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by texshare:
//   - [slog.LevelDebug]: internal diagnostics (texture resets, channel publishes)
//   - [slog.LevelInfo]: lifecycle events (filter created and destroyed, channel renamed)
//   - [slog.LevelWarn]: absorbed failures (directory errors, texture allocation failures)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	texshare.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	texshare.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logx.Set(l)
}

// Logger returns the current logger used by texshare.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logx.Logger()
}
