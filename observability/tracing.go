package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for every span the core
// produces, so a consumer's exporter can filter on it.
const TracerName = "fluxstate"

// NewTracerProvider builds a trace.TracerProvider with no exporter attached,
// matching a library (as opposed to a deployed service) that should not
// force an exporter on its caller. Callers that want spans to go somewhere
// use NewOTLPTracerProvider instead.
func NewTracerProvider(opts ...trace.TracerProviderOption) *trace.TracerProvider {
	return trace.NewTracerProvider(opts...)
}

// TracingConfig configures NewOTLPTracerProvider's exporter and resource.
type TracingConfig struct {
	ServiceName string
	Endpoint    string
}

// NewOTLPTracerProvider builds a trace.TracerProvider that batches spans to
// an OTLP/gRPC collector at cfg.Endpoint (localhost:4317 if empty), tagged
// with cfg.ServiceName. The returned shutdown func flushes and closes the
// exporter; callers should defer it.
func NewOTLPTracerProvider(ctx context.Context, cfg TracingConfig) (*trace.TracerProvider, func(context.Context) error, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if endpoint == "localhost:4317" || endpoint == "127.0.0.1:4317" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, nil, fmt.Errorf("observability: new otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("observability: merge resource: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	return provider, provider.Shutdown, nil
}

// SetTracerProvider installs provider as the global tracer provider used by
// StartDispatchSpan and StartThunkSpan.
func SetTracerProvider(provider oteltrace.TracerProvider) {
	otel.SetTracerProvider(provider)
}

func tracer() oteltrace.Tracer {
	return otel.Tracer(TracerName)
}

// StartDispatchSpan opens a span around one store.Dispatch call, tagged with
// the action's type.
func StartDispatchSpan(ctx context.Context, actionType string) (context.Context, oteltrace.Span) {
	return tracer().Start(ctx, "dispatch", oteltrace.WithAttributes(
		attribute.String("fluxstate.action.type", actionType),
	))
}

// StartThunkSpan opens a span around one async-thunk lifecycle, tagged with
// its typePrefix and requestId. Callers end the span on /fulfilled,
// /rejected, or /conditionRejected.
func StartThunkSpan(ctx context.Context, typePrefix, requestID string) (context.Context, oteltrace.Span) {
	return tracer().Start(ctx, "async_thunk", oteltrace.WithAttributes(
		attribute.String("fluxstate.thunk.type_prefix", typePrefix),
		attribute.String("fluxstate.thunk.request_id", requestID),
	))
}
