// Package telemetry provides OpenTelemetry tracing for completion calls.
package telemetry

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/averyhart/qa-advisor/internal/chat"
)

const (
	serviceName = "qa-advisor"
	tracerName  = "github.com/averyhart/qa-advisor"
)

// Config holds the configuration for telemetry.
type Config struct {
	Enabled      bool
	OTLPEndpoint string
	Version      string
}

// Provider manages the tracer provider lifecycle. When disabled it installs
// nothing and all spans are no-ops.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider sets up an OTLP/HTTP trace exporter and registers the global
// tracer provider. With Enabled false it returns an inert provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		log.Printf("Telemetry disabled")
		return &Provider{}, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Printf("Telemetry enabled, exporting traces to %s", cfg.OTLPEndpoint)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes and stops the tracer provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// StartCompletionSpan starts a span covering one completion boundary call.
func StartCompletionSpan(ctx context.Context, provider string, model string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(tracerName)
	return tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("gen_ai.system", provider),
		attribute.String("gen_ai.request.model", model),
	))
}

// RecordUsage attaches token usage to a completion span.
func RecordUsage(span trace.Span, usage chat.TokenUsage) {
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", usage.OutputTokens),
	)
}

// NewSessionID generates an opaque session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// NewTurnID generates an identifier correlating the log lines of one
// submit/reply exchange.
func NewTurnID() string {
	return uuid.New().String()
}
