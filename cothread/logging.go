package cothread

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Level mirrors the four levels the runtime and the simulator built on top
// of it actually use. It is intentionally smaller than logiface's full
// syslog-derived level set — Crit/Alert/Emerg have no caller in this
// codebase, and LevelWarn is emitted at logiface's Notice level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is the pluggable logging facade every package in this module
// takes a dependency on, following the same "small interface, swappable
// backend, package-level default" shape as the teacher's own eventloop
// Logger.
type Logger interface {
	Log(level Level, msg string, kv ...any)
}

// NopLogger discards everything. It is the zero-configuration default so
// that forgetting to wire a logger never panics.
type NopLogger struct{}

func (NopLogger) Log(Level, string, ...any) {}

// stumpyLogger adapts a logiface/stumpy structured logger to the Logger
// interface. kv pairs are attached with Str for string values, Err for
// errors and the generic Any field for everything else; this keeps call
// sites untyped (matching the rest of the runtime's any-typed surface) at
// the cost of losing stumpy's other typed field encoders — an acceptable
// trade given the runtime's own log volume is low.
type stumpyLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds a Logger backed by stumpy, writing newline-delimited
// JSON records to w.
func NewStumpyLogger(w io.Writer) Logger {
	return &stumpyLogger{
		l: stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		),
	}
}

func (s *stumpyLogger) Log(level Level, msg string, kv ...any) {
	var b *logiface.Builder[*stumpy.Event]
	switch level {
	case LevelDebug:
		b = s.l.Debug()
	case LevelInfo:
		b = s.l.Info()
	case LevelWarn:
		b = s.l.Notice()
	case LevelError:
		b = s.l.Err()
	default:
		b = s.l.Info()
	}
	if b == nil {
		// level disabled by the logger's configured threshold
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			continue
		}
		switch v := kv[i+1].(type) {
		case string:
			b = b.Str(key, v)
		case error:
			b = b.Err(v)
		default:
			b = b.Any(key, v)
		}
	}
	b.Log(msg)
}
