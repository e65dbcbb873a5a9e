package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/querycheck/internal/events"
	"github.com/hanpama/querycheck/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentation = "github.com/hanpama/querycheck"

// Setup exports spans for bus events to the OTLP collector at endpoint.
// With an empty endpoint nothing is configured and shutdown is a no-op.
func Setup(ctx context.Context, endpoint, service string, bus *events.Bus) (shutdown func(context.Context) error, err error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	detach := Attach(bus, tp.Tracer(instrumentation))
	return func(ctx context.Context) error {
		detach()
		return tp.Shutdown(ctx)
	}, nil
}

// Attach turns HTTP and validation events on bus into spans of tracer.
// Validation spans are children of the HTTP span of the same request.
func Attach(bus *events.Bus, tracer trace.Tracer) (detach func()) {
	s := &subscriber{tracer: tracer}
	unsubscribe := []func(){
		events.Subscribe(bus, s.httpStart),
		events.Subscribe(bus, s.httpFinish),
		events.Subscribe(bus, s.validationStart),
		events.Subscribe(bus, s.validationFinish),
	}
	return func() {
		for _, u := range unsubscribe {
			u()
		}
	}
}

type validationKey struct {
	rid  reqid.ID
	hash string
}

type subscriber struct {
	tracer          trace.Tracer
	httpSpans       sync.Map // reqid.ID -> trace.Span
	validationSpans sync.Map // validationKey -> trace.Span
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.String("http.request_id", e.RequestID),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		semconv.HTTPStatusCodeKey.Int(e.Status),
		attribute.Int("graphql.document_count", e.Documents),
	)
	if e.Status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", e.Status))
	}
	span.End()
}

func (s *subscriber) validationStart(ctx context.Context, e events.ValidationStart) {
	rid, _ := reqid.FromContext(ctx)
	parent := ctx
	if v, ok := s.httpSpans.Load(rid); ok {
		parent = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := s.tracer.Start(parent, "graphql.validate")
	span.SetAttributes(
		attribute.String("graphql.document.hash", e.DocumentHash),
		attribute.String("graphql.operation.name", e.OperationName),
	)
	s.validationSpans.Store(validationKey{rid: rid, hash: e.DocumentHash}, span)
}

func (s *subscriber) validationFinish(ctx context.Context, e events.ValidationFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.validationSpans.LoadAndDelete(validationKey{rid: rid, hash: e.DocumentHash})
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		attribute.Bool("graphql.parse_failed", e.ParseFailed),
		attribute.Int("graphql.validation.error_count", e.Errors),
		attribute.Int("graphql.validation.conflict_count", e.Conflicts),
	)
	if e.ParseFailed || e.Errors > 0 {
		span.SetStatus(codes.Error, "document rejected")
	}
	span.End()
}
