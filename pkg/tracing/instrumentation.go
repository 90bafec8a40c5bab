package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Route span attributes
const (
	OriginKey        = attribute.Key("route.origin")
	DestinationKey   = attribute.Key("route.destination")
	RouteCountKey    = attribute.Key("route.count")
	RouteCodeKey     = attribute.Key("route.code")
	DistanceKey      = attribute.Key("route.distance_meters")
	DurationKey      = attribute.Key("route.duration_seconds")
	ManeuverCountKey = attribute.Key("route.maneuver_count")
	ResponseBytesKey = attribute.Key("route.response_bytes")
)

// TraceExternalAPI wraps an external API call in a client span named
// "<serviceName>.<operation>".
func TraceExternalAPI(ctx context.Context, tracerName, serviceName, operation string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("%s.%s", serviceName, operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("external.service", serviceName),
		attribute.String("external.operation", operation),
	)

	err := fn(ctx)
	EndWithError(span, err)
	return err
}

// EndWithError records err on span and sets its status; it does not end span.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RouteAttributes describes a route request by its "lon,lat" endpoints.
func RouteAttributes(origin, destination fmt.Stringer) []attribute.KeyValue {
	return []attribute.KeyValue{
		OriginKey.String(origin.String()),
		DestinationKey.String(destination.String()),
	}
}
