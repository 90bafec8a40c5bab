package osrm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/richxcame/osrm-route/internal/route"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/httpclient"
	"github.com/richxcame/osrm-route/pkg/logger"
	"github.com/richxcame/osrm-route/pkg/resilience"
	"github.com/richxcame/osrm-route/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/richxcame/osrm-route/internal/osrm"

// ProjectedRoute is the first route of a response with every maneuver
// projected to Web Mercator.
type ProjectedRoute struct {
	Code     string  `json:"code"`
	Summary  string  `json:"summary"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	// StraightLine is the great-circle distance between the requested points.
	StraightLine float64          `json:"straight_line_distance"`
	Waypoints    []route.Waypoint `json:"waypoints"`
	Steps        []ProjectedStep  `json:"steps"`
}

// ProjectedStep is one step's maneuver in both coordinate systems.
type ProjectedStep struct {
	Name         string        `json:"name"`
	ManeuverType string        `json:"maneuver_type"`
	Modifier     string        `json:"modifier,omitempty"`
	Location     geo.Point     `json:"location"`
	Projected    geo.Projected `json:"projected"`
	Distance     float64       `json:"distance"`
	Duration     float64       `json:"duration"`
}

// Service fetches, validates and projects routes.
type Service struct {
	fetcher Fetcher
}

// NewService creates a new route service
func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// GetRoute fetches and parses the route from origin to destination.
// A well-formed response with a non-Ok code is returned together with a
// *route.LogicalError. Invalid documents yield a *route.ValidationError and
// no response.
func (s *Service) GetRoute(ctx context.Context, origin, destination geo.Point) (*route.Response, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "osrm.GetRoute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.RouteAttributes(origin, destination)...),
	)
	defer span.End()

	resp, err := s.getRoute(ctx, origin, destination)
	if resp != nil {
		span.SetAttributes(
			tracing.RouteCodeKey.String(resp.Code),
			tracing.RouteCountKey.Int(len(resp.Routes)),
		)
		if len(resp.Routes) > 0 {
			span.SetAttributes(
				tracing.DistanceKey.Float64(resp.Routes[0].Distance),
				tracing.DurationKey.Float64(resp.Routes[0].Duration),
			)
		}
	}
	tracing.EndWithError(span, err)
	return resp, err
}

func (s *Service) getRoute(ctx context.Context, origin, destination geo.Point) (*route.Response, error) {
	log := logger.WithContext(ctx).With(
		zap.Stringer("origin", origin),
		zap.Stringer("destination", destination),
	)

	start := time.Now()
	raw, err := s.fetcher.Fetch(ctx, origin, destination)
	routeFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if resp := logicalResponse(err); resp != nil {
			routeResponseCodes.WithLabelValues(resp.Code).Inc()
			recordResult(resultLogical)
			log.Info("Routing service rejected the request",
				zap.String("code", resp.Code),
				zap.String("message", resp.Message),
			)
			return resp, resp.Err()
		}

		recordResult(fetchFailureResult(err))
		log.Warn("Failed to fetch route", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}
	routeResponseBytes.Observe(float64(len(raw)))

	resp, err := route.Parse(raw)
	if err != nil {
		recordResult(resultInvalid)
		log.Warn("Routing service returned an invalid document",
			zap.Error(err),
			zap.Int("bytes", len(raw)),
		)
		return nil, err
	}
	routeResponseCodes.WithLabelValues(resp.Code).Inc()

	if err := resp.Err(); err != nil {
		recordResult(resultLogical)
		log.Info("Routing service returned a non-Ok code", zap.String("code", resp.Code))
		return resp, err
	}

	recordResult(resultOK)
	log.Debug("Route fetched",
		zap.Int("routes", len(resp.Routes)),
		zap.Duration("took", time.Since(start)),
	)
	return resp, nil
}

// GetProjectedRoute fetches the route and projects every maneuver of its
// first alternative. An Ok response without routes yields no steps.
func (s *Service) GetProjectedRoute(ctx context.Context, origin, destination geo.Point) (*ProjectedRoute, error) {
	resp, err := s.GetRoute(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	result := &ProjectedRoute{
		Code:         resp.Code,
		StraightLine: geo.Haversine(origin, destination),
		Waypoints:    resp.Waypoints,
		Steps:        []ProjectedStep{},
	}
	if len(resp.Routes) == 0 {
		return result, nil
	}

	first := &resp.Routes[0]
	result.Summary = first.Summary
	result.Distance = first.Distance
	result.Duration = first.Duration

	projected, err := first.ProjectManeuvers()
	if err != nil {
		logger.WarnContext(ctx, "Failed to project route maneuvers", zap.Error(err))
		return nil, fmt.Errorf("failed to project route: %w", err)
	}

	i := 0
	for _, leg := range first.Legs {
		for _, step := range leg.Steps {
			ps := ProjectedStep{
				Name:         step.Name,
				ManeuverType: step.Maneuver.Type,
				Location:     step.Maneuver.Location,
				Projected:    projected[i],
				Distance:     step.Distance,
				Duration:     step.Duration,
			}
			if step.Maneuver.Modifier != nil {
				ps.Modifier = *step.Maneuver.Modifier
			}
			result.Steps = append(result.Steps, ps)
			i++
		}
	}

	return result, nil
}

// logicalResponse recovers a non-Ok document from a 4xx answer. OSRM sends
// NoRoute, InvalidQuery and friends with status 400.
func logicalResponse(err error) *route.Response {
	var transportErr *httpclient.TransportError
	if !errors.As(err, &transportErr) {
		return nil
	}
	if transportErr.StatusCode < http.StatusBadRequest || transportErr.StatusCode >= http.StatusInternalServerError {
		return nil
	}
	if len(transportErr.Body) == 0 {
		return nil
	}

	resp, parseErr := route.Parse(transportErr.Body)
	if parseErr != nil || resp.OK() {
		return nil
	}
	return resp
}

func fetchFailureResult(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return resultCircuitOpen
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCanceled
	default:
		return resultTransport
	}
}
