// Package kslog provides a plug-in kmark.Logger wrapping slog.Logger for
// usage in a kmark.Manager.
//
// This can be used like so:
//
//	m, err := kmark.NewManager[txnState](meta,
//	        kmark.WithLogger(kslog.New(slog.Default())),
//	        // ...other opts
//	)
package kslog

import (
	"context"
	"log/slog"

	"github.com/twmb/kmark/pkg/kmark"
)

// Logger provides the kmark.Logger interface for usage in kmark.WithLogger
// when initializing a manager.
type Logger struct {
	sl *slog.Logger
}

// New returns a new kmark.Logger that wraps an slog.Logger.
func New(sl *slog.Logger) *Logger {
	return &Logger{sl}
}

// Level is for the kmark.Logger interface.
func (l *Logger) Level() kmark.LogLevel {
	ctx := context.Background()
	switch {
	case l.sl.Enabled(ctx, slog.LevelDebug):
		return kmark.LogLevelDebug
	case l.sl.Enabled(ctx, slog.LevelInfo):
		return kmark.LogLevelInfo
	case l.sl.Enabled(ctx, slog.LevelWarn):
		return kmark.LogLevelWarn
	case l.sl.Enabled(ctx, slog.LevelError):
		return kmark.LogLevelError
	default:
		return kmark.LogLevelNone
	}
}

// Log is for the kmark.Logger interface.
func (l *Logger) Log(level kmark.LogLevel, msg string, keyvals ...any) {
	l.sl.Log(context.Background(), kmarkToSlogLevel(level), msg, keyvals...)
}

func kmarkToSlogLevel(level kmark.LogLevel) slog.Level {
	switch level {
	case kmark.LogLevelError:
		return slog.LevelError
	case kmark.LogLevelWarn:
		return slog.LevelWarn
	case kmark.LogLevelInfo:
		return slog.LevelInfo
	case kmark.LogLevelDebug:
		return slog.LevelDebug
	default:
		// Using the default level for slog
		return slog.LevelInfo
	}
}
