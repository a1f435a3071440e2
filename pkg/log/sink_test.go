package log

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/stretchr/testify/assert"
)

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := tracing.New("input processing", nil, tracing.NewLogChannel(tracing.AllLogs, NewSlogSink(logger)))
	ctx.Info("started", nil)
	ctx.Custom("verbose", nil)
	ctx.Error(errors.New("boom"), nil)

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=started kind=info")
	assert.Contains(t, out, `context="input processing"`)
	assert.NotContains(t, out, "verbose")
	assert.Contains(t, out, "level=ERROR msg=boom")
	assert.Contains(t, out, "error=boom")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Level(tracing.KindWarning))
	assert.Equal(t, slog.LevelDebug, Level(tracing.KindCustom))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "module", "core/sum")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"module":"core/sum"`)
}
