package osrm

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/richxcame/osrm-route/pkg/config"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/httpclient"
	"github.com/richxcame/osrm-route/pkg/resilience"
	"github.com/richxcame/osrm-route/pkg/tracing"
)

const (
	// upstreamName keys breaker overrides (CB_SERVICE_OVERRIDES) and metrics.
	upstreamName = "osrm"

	routeQuery = "overview=full&geometries=polyline&steps=true"
)

// ErrUpstreamUnavailable is reported by HealthCheck while the breaker is open.
var ErrUpstreamUnavailable = errors.New("circuit breaker open for route service")

var requestHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
}

// Fetcher returns the raw route document between two points.
type Fetcher interface {
	Fetch(ctx context.Context, origin, destination geo.Point) ([]byte, error)
}

// Client fetches driving routes from an OSRM route service.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a client for the route service at baseURL, e.g.
// https://routing.openstreetmap.de/routed-car/route/v1/driving.
func NewClient(baseURL string, timeout time.Duration, opts ...httpclient.Option) *Client {
	return &Client{
		http: httpclient.NewClient(strings.TrimRight(baseURL, "/"), timeout, opts...),
	}
}

// NewClientFromConfig builds a client with the retry and circuit breaker
// policy from cfg.
func NewClientFromConfig(cfg *config.Config) *Client {
	var opts []httpclient.Option

	if cfg.OSRM.RetryEnabled {
		retry := resilience.DefaultRetryConfig()
		if cfg.OSRM.RetryAttempts > 0 {
			retry.MaxAttempts = cfg.OSRM.RetryAttempts
		}
		opts = append(opts, httpclient.WithRetry(retry))
	}

	if cfg.Resilience.CircuitBreaker.Enabled {
		cb := cfg.Resilience.CircuitBreaker.SettingsFor(upstreamName)
		settings := resilience.BuildSettings(upstreamName, cb.IntervalSeconds, cb.TimeoutSeconds, cb.FailureThreshold, cb.SuccessThreshold)
		settings.IsFailure = httpclient.IsServerFailure
		opts = append(opts, httpclient.WithCircuitBreaker(resilience.NewCircuitBreaker(settings)))
	}

	return NewClient(cfg.OSRM.BaseURL, cfg.OSRM.OSRMTimeout(), opts...)
}

// BaseURL returns the route service endpoint.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// HealthCheck fails while the circuit breaker for the route service is open.
func (c *Client) HealthCheck() error {
	if !c.http.Available() {
		return ErrUpstreamUnavailable
	}
	return nil
}

// Fetch requests the full-overview, step-by-step route from origin to
// destination inside an "osrm.route" client span. Non-2xx answers come back
// as *httpclient.TransportError with the body kept, since OSRM explains
// NoRoute and similar codes in a 400 body.
func (c *Client) Fetch(ctx context.Context, origin, destination geo.Point) ([]byte, error) {
	var body []byte
	err := tracing.TraceExternalAPI(ctx, tracerName, upstreamName, "route", func(ctx context.Context) error {
		var err error
		body, err = c.http.Get(ctx, RoutePath(origin, destination), requestHeaders)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// RoutePath renders "/{lon},{lat};{lon},{lat}?<options>". OSRM puts
// longitude first.
func RoutePath(origin, destination geo.Point) string {
	var b strings.Builder
	b.WriteByte('/')
	writeCoordinate(&b, origin)
	b.WriteByte(';')
	writeCoordinate(&b, destination)
	b.WriteByte('?')
	b.WriteString(routeQuery)
	return b.String()
}

func writeCoordinate(b *strings.Builder, p geo.Point) {
	b.WriteString(strconv.FormatFloat(p.Lon(), 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(p.Lat(), 'f', -1, 64))
}
