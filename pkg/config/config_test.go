package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "READ_TIMEOUT", "WRITE_TIMEOUT", "REQUEST_TIMEOUT_SECONDS", "CORS_ORIGINS",
	"OSRM_BASE_URL", "OSRM_TIMEOUT_SECONDS", "OSRM_RETRY_ENABLED", "OSRM_RETRY_ATTEMPTS",
	"CB_ENABLED", "CB_FAILURE_THRESHOLD", "CB_SUCCESS_THRESHOLD", "CB_TIMEOUT_SECONDS", "CB_INTERVAL_SECONDS", "CB_SERVICE_OVERRIDES",
	"OTEL_ENABLED", "OTEL_SERVICE_VERSION", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_TRACE_SAMPLE_RATE",
	"SENTRY_DSN", "SENTRY_RELEASE", "SENTRY_SAMPLE_RATE", "SENTRY_TRACES_SAMPLE_RATE", "SENTRY_DEBUG",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "ROUTE_CACHE_ENABLED", "ROUTE_CACHE_TTL_SECONDS",
}

// clearConfigEnv blanks every variable Load reads; empty values fall back to defaults.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load("route-service")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "route-service", cfg.Server.ServiceName)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout())

	assert.Equal(t, DefaultOSRMBaseURL, cfg.OSRM.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.OSRM.OSRMTimeout())
	assert.False(t, cfg.OSRM.RetryEnabled)
	assert.Equal(t, 3, cfg.OSRM.RetryAttempts)

	assert.False(t, cfg.Resilience.CircuitBreaker.Enabled)
	assert.Equal(t, 5, cfg.Resilience.CircuitBreaker.FailureThreshold)

	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
	assert.Empty(t, cfg.Sentry.DSN)

	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.False(t, cfg.RouteCache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.RouteCache.TTL())
}

func TestLoadCustomValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("OSRM_BASE_URL", "http://localhost:5000/route/v1/driving")
	t.Setenv("OSRM_TIMEOUT_SECONDS", "5")
	t.Setenv("OSRM_RETRY_ENABLED", "true")
	t.Setenv("OSRM_RETRY_ATTEMPTS", "4")
	t.Setenv("CB_ENABLED", "true")
	t.Setenv("CB_FAILURE_THRESHOLD", "2")
	t.Setenv("OTEL_TRACE_SAMPLE_RATE", "0.25")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("ROUTE_CACHE_ENABLED", "true")
	t.Setenv("ROUTE_CACHE_TTL_SECONDS", "60")

	cfg, err := Load("route-service")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5000/route/v1/driving", cfg.OSRM.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.OSRM.OSRMTimeout())
	assert.True(t, cfg.OSRM.RetryEnabled)
	assert.Equal(t, 4, cfg.OSRM.RetryAttempts)
	assert.True(t, cfg.Resilience.CircuitBreaker.Enabled)
	assert.Equal(t, 2, cfg.Resilience.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
	assert.Equal(t, "cache:6379", cfg.Redis.RedisAddr())
	assert.True(t, cfg.RouteCache.Enabled)
	assert.Equal(t, time.Minute, cfg.RouteCache.TTL())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "relative base url", key: "OSRM_BASE_URL", value: "/route/v1/driving", wantErr: "OSRM_BASE_URL"},
		{name: "unsupported scheme", key: "OSRM_BASE_URL", value: "ftp://example.com/route", wantErr: "OSRM_BASE_URL"},
		{name: "timeout exceeds maximum", key: "OSRM_TIMEOUT_SECONDS", value: "999", wantErr: "exceeds maximum"},
		{name: "negative timeout", key: "OSRM_TIMEOUT_SECONDS", value: "-1", wantErr: "must be positive"},
		{name: "sample rate above one", key: "OTEL_TRACE_SAMPLE_RATE", value: "1.5", wantErr: "OTEL_TRACE_SAMPLE_RATE"},
		{name: "broken overrides", key: "CB_SERVICE_OVERRIDES", value: "{not json", wantErr: "CB_SERVICE_OVERRIDES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("route-service")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCircuitBreakerSettingsFor(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CB_SERVICE_OVERRIDES", `{"osrm":{"failure_threshold":3,"timeout_seconds":10}}`)

	cfg, err := Load("route-service")
	require.NoError(t, err)

	osrm := cfg.Resilience.CircuitBreaker.SettingsFor("osrm")
	assert.Equal(t, 3, osrm.FailureThreshold)
	assert.Equal(t, 10, osrm.TimeoutSeconds)
	assert.Equal(t, 1, osrm.SuccessThreshold)
	assert.Equal(t, 60, osrm.IntervalSeconds)

	other := cfg.Resilience.CircuitBreaker.SettingsFor("unknown")
	assert.Equal(t, 5, other.FailureThreshold)
	assert.Equal(t, 30, other.TimeoutSeconds)
}
