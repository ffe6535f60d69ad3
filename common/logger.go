package common

import (
	"io"
	"log"
)

// Logger is the logging surface injected into long-lived components.
type Logger interface {
	Printf(format string, v ...any)
}

// NewLogger returns a standard logger writing to w with the given prefix.
func NewLogger(w io.Writer, prefix string) Logger {
	return log.New(w, prefix, log.LstdFlags|log.Lmsgprefix)
}

// NopLogger discards everything.
type NopLogger struct{}

// Printf implements Logger.
func (NopLogger) Printf(string, ...any) {}
