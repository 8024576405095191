package kmark

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// LogLevel designates which level the logger should log at.
type LogLevel int8

const (
	// LogLevelNone disables logging.
	LogLevelNone LogLevel = iota
	// LogLevelError logs all errors. Generally, these should not happen.
	LogLevelError
	// LogLevelWarn logs all warnings, such as routing failures.
	LogLevelWarn
	// LogLevelInfo logs informational messages, such as drains and
	// partition releases. This is usually the default log level.
	LogLevelInfo
	// LogLevelDebug logs verbose information, and is usually not used in
	// production.
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	}
	return "NONE"
}

// Logger is used to log informational messages.
type Logger interface {
	// Level returns the log level to log at.
	//
	// Implementations can change their log level on the fly, but this
	// function must be safe to call concurrently.
	Level() LogLevel

	// Log logs a message with key, value pair arguments for the given
	// log level.
	//
	// This must be safe to call concurrently.
	Log(level LogLevel, msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Level() LogLevel              { return LogLevelNone }
func (nopLogger) Log(LogLevel, string, ...any) {}

// wrappedLogger wraps the config logger for convenience at logging callsites:
// messages above the logger's level are dropped here, so callsites never need
// their own level check.
type wrappedLogger struct {
	inner Logger
}

func (w *wrappedLogger) Level() LogLevel {
	if w.inner == nil {
		return LogLevelNone
	}
	return w.inner.Level()
}

func (w *wrappedLogger) Log(level LogLevel, msg string, keyvals ...any) {
	if w.Level() < level {
		return
	}
	w.inner.Log(level, msg, keyvals...)
}

// BasicLogger returns a logger that writes newline delimited messages to w in
// the following format:
//
//	prefix [LEVEL] message; key: val, key: val
//
// If prefixFn is non-nil, it is evaluated per message and its result
// prepended; this is commonly used to prefix a timestamp.
func BasicLogger(w io.Writer, level LogLevel, prefixFn func() string) Logger {
	return &basicLogger{w, level, prefixFn}
}

type basicLogger struct {
	w        io.Writer
	level    LogLevel
	prefixFn func() string
}

var basicLoggerBufs = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func (b *basicLogger) Level() LogLevel { return b.level }

func (b *basicLogger) Log(level LogLevel, msg string, keyvals ...any) {
	buf := basicLoggerBufs.Get().(*bytes.Buffer)
	defer basicLoggerBufs.Put(buf)

	buf.Reset()
	if b.prefixFn != nil {
		buf.WriteString(b.prefixFn())
	}
	buf.WriteByte('[')
	buf.WriteString(level.String())
	buf.WriteString("] ")
	buf.WriteString(msg)

	if len(keyvals) > 0 {
		buf.WriteString("; ")
		format := "%v: %v"
		if len(keyvals)%2 == 1 {
			keyvals = append(keyvals, "")
		}
		for i := 0; i < len(keyvals); i += 2 {
			if i > 0 {
				format = ", %v: %v"
			}
			fmt.Fprintf(buf, format, keyvals[i], keyvals[i+1])
		}
	}

	buf.WriteByte('\n')
	b.w.Write(buf.Bytes())
}
