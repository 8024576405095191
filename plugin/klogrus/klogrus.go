// Package klogrus provides a plug-in kmark.Logger wrapping logrus for usage
// in a kmark.Manager.
//
// This can be used like so:
//
//	m, err := kmark.NewManager[txnState](meta,
//	        kmark.WithLogger(klogrus.New(logrus.StandardLogger())),
//	        // ...other opts
//	)
package klogrus

import (
	"github.com/sirupsen/logrus"

	"github.com/twmb/kmark/pkg/kmark"
)

// Logger provides the kmark.Logger interface for usage in kmark.WithLogger
// when initializing a manager.
type Logger struct {
	lr *logrus.Logger
}

// New returns a new Logger.
func New(lr *logrus.Logger) *Logger {
	return &Logger{lr}
}

// Level is for the kmark.Logger interface.
func (l *Logger) Level() kmark.LogLevel {
	return logrusToKmarkLevel(l.lr.GetLevel())
}

// Log is for the kmark.Logger interface.
func (l *Logger) Log(level kmark.LogLevel, msg string, keyvals ...any) {
	logrusLevel, levelMatched := kmarkToLogrusLevel(level)
	if !levelMatched {
		return
	}
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		k, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields[k] = keyvals[i+1]
	}
	l.lr.WithFields(fields).Log(logrusLevel, msg)
}

func kmarkToLogrusLevel(level kmark.LogLevel) (logrus.Level, bool) {
	switch level {
	case kmark.LogLevelError:
		return logrus.ErrorLevel, true
	case kmark.LogLevelWarn:
		return logrus.WarnLevel, true
	case kmark.LogLevelInfo:
		return logrus.InfoLevel, true
	case kmark.LogLevelDebug:
		return logrus.DebugLevel, true
	}
	return logrus.TraceLevel, false
}

func logrusToKmarkLevel(level logrus.Level) kmark.LogLevel {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return kmark.LogLevelError
	case logrus.WarnLevel:
		return kmark.LogLevelWarn
	case logrus.InfoLevel:
		return kmark.LogLevelInfo
	case logrus.DebugLevel, logrus.TraceLevel:
		return kmark.LogLevelDebug
	default:
		return kmark.LogLevelNone
	}
}
