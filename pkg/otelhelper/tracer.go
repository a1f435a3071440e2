// Package otelhelper exports execution traces as OpenTelemetry spans.
package otelhelper

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ModuleIDKey    = "fluxrt.module.id"
	FactoryIDKey   = "fluxrt.module.factory"
	SlotIDKey      = "fluxrt.slot.id"
	ConnectionKey  = "fluxrt.connection.id"
	LogKindKey     = "fluxrt.log.kind"
	ContextTitle   = "fluxrt.context.title"
	UserContextKey = "fluxrt.context.user"
)

// NewTracer creates a tracer exporting through OTLP over HTTP, configured by the
// OTEL_EXPORTER_OTLP_* environment variables. The returned function flushes and
// stops the exporter.
// nolint:ireturn
func NewTracer(ctx context.Context, serviceName string) (trace.Tracer, func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Tracer(serviceName), provider.Shutdown, nil
}
