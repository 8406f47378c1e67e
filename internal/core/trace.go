package core

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/JonMunkholm/vpl/internal/core"

// registrations counts Register outcomes by result. The global meter
// forwards to whatever provider telemetry.Setup installs later.
var registrations, _ = otel.Meter(instrumentationName).Int64Counter(
	"vpl.registrations",
	metric.WithDescription("Registration attempts by result"),
)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span (if any) and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// countRegistration adds one to the counter under err's result class.
func countRegistration(ctx context.Context, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		result = "invalid"
	case errors.Is(err, ErrTooManySubmissions):
		result = "busy"
	default:
		result = "error"
	}
	registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
