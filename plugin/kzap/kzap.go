// Package kzap provides a plug-in kmark.Logger wrapping uber's zap for usage
// in a kmark.Manager.
//
// This can be used like so:
//
//	m, err := kmark.NewManager[txnState](meta,
//	        kmark.WithLogger(kzap.New(zapLogger)),
//	        // ...other opts
//	)
//
// By default, the logger chooses the highest level possible that is enabled
// on the zap logger, and then sticks with that level forever. A variable
// level can be chosen by specifying the LevelFn option. See the
// documentation on Level or LevelFn for more info.
package kzap

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/twmb/kmark/pkg/kmark"
)

// Logger provides the kmark.Logger interface for usage in kmark.WithLogger
// when initializing a manager.
type Logger struct {
	zl *zap.Logger

	levelFn func() kmark.LogLevel
}

// New returns a new logger that by default forever logs at the highest level
// enabled in the zap logger.
func New(zl *zap.Logger, opts ...Opt) *Logger {
	static := kmark.LogLevelError
	switch {
	case zl.Core().Enabled(zapcore.DebugLevel):
		static = kmark.LogLevelDebug
	case zl.Core().Enabled(zapcore.InfoLevel):
		static = kmark.LogLevelInfo
	case zl.Core().Enabled(zapcore.WarnLevel):
		static = kmark.LogLevelWarn
	}
	l := &Logger{
		zl:      zl,
		levelFn: func() kmark.LogLevel { return static },
	}
	for _, opt := range opts {
		opt.apply(l)
	}
	return l
}

// Opt applies options to the logger.
type Opt interface {
	apply(*Logger)
}

type opt struct{ fn func(*Logger) }

func (o opt) apply(l *Logger) { o.fn(l) }

// LevelFn sets a function that can dynamically change the log level.
//
// This log level is independent of the zap logger level; zap has no way to
// pre-check which level a logger is operating at, and this filter runs
// before Log is called, after which the zap logger level takes effect.
func LevelFn(fn func() kmark.LogLevel) Opt {
	return opt{func(l *Logger) { l.levelFn = fn }}
}

// Level sets a static level for the kmark.Logger Level function.
//
// This log level is independent of the zap logger level; zap has no way to
// pre-check which level a logger is operating at, and this filter runs
// before Log is called, after which the zap logger level takes effect.
func Level(level kmark.LogLevel) Opt {
	return LevelFn(func() kmark.LogLevel { return level })
}

// Level is for the kmark.Logger interface.
func (l *Logger) Level() kmark.LogLevel {
	return l.levelFn()
}

// Log is for the kmark.Logger interface.
func (l *Logger) Log(level kmark.LogLevel, msg string, keyvals ...any) {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		k, v := keyvals[i], keyvals[i+1]
		fields = append(fields, zap.Any(k.(string), v))
	}
	switch level {
	case kmark.LogLevelDebug:
		l.zl.Debug(msg, fields...)
	case kmark.LogLevelError:
		l.zl.Error(msg, fields...)
	case kmark.LogLevelInfo:
		l.zl.Info(msg, fields...)
	case kmark.LogLevelWarn:
		l.zl.Warn(msg, fields...)
	default:
		// do nothing
	}
}
