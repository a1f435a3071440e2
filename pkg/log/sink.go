package log

import (
	"context"
	"log/slog"

	"github.com/dukex/fluxrt/pkg/tracing"
)

// SlogSink forwards trace log entries to a slog logger, mapping the entry kind to a level.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogSink{logger: logger}
}

func (s *SlogSink) Accept(entry *tracing.LogEntry) {
	attrs := []any{"kind", string(entry.Kind)}

	if entry.Context != nil {
		attrs = append(attrs, "context", entry.Context.Title())
	}

	if entry.Data != nil {
		attrs = append(attrs, "data", entry.Data)
	}

	if entry.Err != nil {
		attrs = append(attrs, "error", entry.Err)
	}

	s.logger.Log(context.Background(), Level(entry.Kind), entry.Text, attrs...)
}

// Level maps a log entry kind to a slog level. Custom entries are logged at debug level.
func Level(kind tracing.Kind) slog.Level {
	switch kind {
	case tracing.KindError:
		return slog.LevelError
	case tracing.KindWarning:
		return slog.LevelWarn
	case tracing.KindInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
