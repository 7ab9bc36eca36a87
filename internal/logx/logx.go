// Package logx holds the logger shared by texshare and its sub-packages.
//
// The root package exposes SetLogger/Logger; sub-packages call Logger()
// directly so they can log without importing the root package.
package logx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NewNop creates a logger that silently discards all output.
func NewNop() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(NewNop())
}

// Logger returns the active logger. Safe for concurrent use.
func Logger() *slog.Logger { return loggerPtr.Load() }

// Set stores l as the active logger. A nil logger restores silent output.
func Set(l *slog.Logger) {
	if l == nil {
		l = NewNop()
	}
	loggerPtr.Store(l)
}
