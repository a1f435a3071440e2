package otelhelper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/fluxrt/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ExportContext replays a trace tree as spans: one span per context, with the start
// and end time of the context, and one event per log entry. Error entries mark their
// span as failed. Contexts still running are ended at the time of their latest child.
// attrs are set on the root span only.
func ExportContext(ctx context.Context, tracer trace.Tracer, root *tracing.Context, attrs ...attribute.KeyValue) {
	exportContext(ctx, tracer, root, attrs)
}

func exportContext(ctx context.Context, tracer trace.Tracer, c *tracing.Context, extra []attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{attribute.String(ContextTitle, c.Title())}, extra...)
	if userContext := c.UserContext(); len(userContext) > 0 {
		attrs = append(attrs, attribute.String(UserContextKey, encode(userContext)))
	}

	spanCtx, span := tracer.Start(ctx, c.Title(),
		trace.WithTimestamp(c.StartTime()),
		trace.WithAttributes(attrs...),
	)

	for _, child := range c.Children() {
		switch e := child.(type) {
		case *tracing.Context:
			exportContext(spanCtx, tracer, e, nil)
		case *tracing.LogEntry:
			eventAttrs := []attribute.KeyValue{attribute.String(LogKindKey, string(e.Kind))}

			if e.Kind == tracing.KindError {
				err := e.Err
				if err == nil {
					err = errors.New(e.Text)
				}

				span.RecordError(err, trace.WithTimestamp(e.Timestamp), trace.WithAttributes(eventAttrs...))
				span.SetStatus(codes.Error, e.Text)

				continue
			}

			span.AddEvent(e.Text, trace.WithTimestamp(e.Timestamp), trace.WithAttributes(eventAttrs...))
		}
	}

	end, ended := c.EndTime()
	if !ended {
		end = c.StartTime().Add(c.Elapsed())
	}

	span.End(trace.WithTimestamp(end))
}

func encode(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return string(raw)
}
