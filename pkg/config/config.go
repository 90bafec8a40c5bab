package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultOSRMBaseURL is the public OSRM car profile of the OpenStreetMap
// Germany routing servers.
const DefaultOSRMBaseURL = "https://routing.openstreetmap.de/routed-car/route/v1/driving"

const (
	// DefaultOSRMTimeoutSeconds bounds a single route fetch.
	DefaultOSRMTimeoutSeconds = 15
	// MaxOSRMTimeoutSeconds caps OSRM_TIMEOUT_SECONDS.
	MaxOSRMTimeoutSeconds = 120
	// DefaultRequestTimeoutSeconds bounds an inbound HTTP request.
	DefaultRequestTimeoutSeconds = 30
	// DefaultRouteCacheTTLSeconds is how long a fetched route document is reused.
	DefaultRouteCacheTTLSeconds = 300
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	OSRM       OSRMConfig
	Resilience ResilienceConfig
	Tracing    TracingConfig
	Sentry     SentryConfig
	Redis      RedisConfig
	RouteCache RouteCacheConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port                  string
	Environment           string
	ServiceName           string
	LogLevel              string
	ReadTimeout           int
	WriteTimeout          int
	RequestTimeoutSeconds int
	CORSOrigins           string // Comma-separated list of allowed origins
}

// OSRMConfig points the route fetcher at an OSRM route service.
type OSRMConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RetryEnabled   bool
	RetryAttempts  int
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-service breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream service
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled        bool
	ServiceVersion string
	OTLPEndpoint   string
	SampleRate     float64
}

// SentryConfig holds error tracking settings. An empty DSN disables Sentry.
type SentryConfig struct {
	DSN              string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RouteCacheConfig controls the Redis cache in front of the OSRM fetcher.
type RouteCacheConfig struct {
	Enabled    bool
	TTLSeconds int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:                  getEnv("PORT", "8080"),
			Environment:           getEnv("ENVIRONMENT", "development"),
			ServiceName:           serviceName,
			LogLevel:              getEnv("LOG_LEVEL", ""),
			ReadTimeout:           getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:          getEnvAsInt("WRITE_TIMEOUT", 30),
			RequestTimeoutSeconds: getEnvAsInt("REQUEST_TIMEOUT_SECONDS", DefaultRequestTimeoutSeconds),
			CORSOrigins:           getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		OSRM: OSRMConfig{
			BaseURL:        getEnv("OSRM_BASE_URL", DefaultOSRMBaseURL),
			TimeoutSeconds: getEnvAsInt("OSRM_TIMEOUT_SECONDS", DefaultOSRMTimeoutSeconds),
			RetryEnabled:   getEnvAsBool("OSRM_RETRY_ENABLED", false),
			RetryAttempts:  getEnvAsInt("OSRM_RETRY_ATTEMPTS", 3),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", false),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
		Tracing: TracingConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", ""),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     getEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvAsFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
			Debug:            getEnvAsBool("SENTRY_DEBUG", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RouteCache: RouteCacheConfig{
			Enabled:    getEnvAsBool("ROUTE_CACHE_ENABLED", false),
			TTLSeconds: getEnvAsInt("ROUTE_CACHE_TTL_SECONDS", DefaultRouteCacheTTLSeconds),
		},
	}

	if breakerOverrides := getEnv("CB_SERVICE_OVERRIDES", ""); breakerOverrides != "" {
		var serviceConfig map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(breakerOverrides), &serviceConfig); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = serviceConfig
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Resilience.CircuitBreaker.TimeoutSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.TimeoutSeconds = 30
	}

	if cfg.Resilience.CircuitBreaker.IntervalSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.IntervalSeconds = 60
	}

	if cfg.Resilience.CircuitBreaker.FailureThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.FailureThreshold = 5
	}

	if cfg.Resilience.CircuitBreaker.SuccessThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.SuccessThreshold = 1
	}

	if cfg.OSRM.RetryAttempts <= 0 {
		cfg.OSRM.RetryAttempts = 1
	}

	if cfg.RouteCache.TTLSeconds <= 0 {
		cfg.RouteCache.TTLSeconds = DefaultRouteCacheTTLSeconds
	}

	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.OSRM.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid OSRM_BASE_URL %q: must be an absolute http(s) URL", c.OSRM.BaseURL)
	}

	if c.OSRM.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid OSRM_TIMEOUT_SECONDS %d: must be positive", c.OSRM.TimeoutSeconds)
	}
	if c.OSRM.TimeoutSeconds > MaxOSRMTimeoutSeconds {
		return fmt.Errorf("OSRM_TIMEOUT_SECONDS %d exceeds maximum of %d", c.OSRM.TimeoutSeconds, MaxOSRMTimeoutSeconds)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("invalid OTEL_TRACE_SAMPLE_RATE %v: must be within [0, 1]", c.Tracing.SampleRate)
	}

	return nil
}

// OSRMTimeout returns the per-fetch timeout.
func (c OSRMConfig) OSRMTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the inbound request timeout.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RedisAddr returns the Redis address
func (c RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// TTL returns how long cached route documents live.
func (c RouteCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SettingsFor returns effective breaker settings for a specific upstream service name
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if override, ok := c.ServiceOverrides[service]; ok {
		if override.FailureThreshold > 0 {
			settings.FailureThreshold = override.FailureThreshold
		}
		if override.SuccessThreshold > 0 {
			settings.SuccessThreshold = override.SuccessThreshold
		}
		if override.TimeoutSeconds > 0 {
			settings.TimeoutSeconds = override.TimeoutSeconds
		}
		if override.IntervalSeconds > 0 {
			settings.IntervalSeconds = override.IntervalSeconds
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
