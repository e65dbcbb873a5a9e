package telemetry

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/hanpama/querycheck/internal/events"
	"github.com/hanpama/querycheck/internal/reqid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recorder(t *testing.T) (*events.Bus, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	bus := events.NewBus()
	t.Cleanup(Attach(bus, tp.Tracer("test")))
	return bus, rec
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestValidationSpanNestsUnderRequest(t *testing.T) {
	bus, rec := recorder(t)
	ctx := reqid.WithID(context.Background(), 7)
	req := httptest.NewRequest("POST", "/", nil)

	events.Publish(ctx, bus, events.HTTPStart{Request: req, RequestID: "0000000000000007"})
	events.Publish(ctx, bus, events.ValidationStart{DocumentHash: "abc", OperationName: "Q"})
	events.Publish(ctx, bus, events.ValidationFinish{DocumentHash: "abc", OperationName: "Q", Errors: 2, Conflicts: 1})
	events.Publish(ctx, bus, events.HTTPFinish{Request: req, RequestID: "0000000000000007", Status: 200, Documents: 1})

	ended := rec.Ended()
	require.Len(t, ended, 2)
	validate, request := ended[0], ended[1]
	require.Equal(t, "graphql.validate", validate.Name())
	require.Equal(t, "http.request", request.Name())
	assert.Equal(t, request.SpanContext().SpanID(), validate.Parent().SpanID())
	assert.Equal(t, request.SpanContext().TraceID(), validate.SpanContext().TraceID())

	va := attrs(validate)
	assert.Equal(t, "abc", va["graphql.document.hash"].AsString())
	assert.Equal(t, int64(2), va["graphql.validation.error_count"].AsInt64())
	assert.Equal(t, int64(1), va["graphql.validation.conflict_count"].AsInt64())
	assert.Equal(t, codes.Error, validate.Status().Code)

	ra := attrs(request)
	assert.Equal(t, "POST", ra["http.method"].AsString())
	assert.Equal(t, int64(200), ra["http.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, request.Status().Code)
}

func TestValidationWithoutRequestIsARootSpan(t *testing.T) {
	bus, rec := recorder(t)
	ctx := context.Background()

	events.Publish(ctx, bus, events.ValidationStart{DocumentHash: "h"})
	events.Publish(ctx, bus, events.ValidationFinish{DocumentHash: "h"})

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.False(t, ended[0].Parent().IsValid())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestFinishWithoutStartIsIgnored(t *testing.T) {
	bus, rec := recorder(t)
	events.Publish(context.Background(), bus, events.ValidationFinish{DocumentHash: "missing"})
	require.Empty(t, rec.Ended())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "querycheck", events.NewBus())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
