package errors

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/osrm-route/pkg/config"
	"github.com/richxcame/osrm-route/pkg/logger"
)

// InitSentry initializes the Sentry SDK. It returns false without error when
// no DSN is configured.
func InitSentry(cfg config.SentryConfig, environment, serverName string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          cfg.Release,
		SampleRate:       cfg.SampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		EnableTracing:    cfg.TracesSampleRate > 0,
		ServerName:       serverName,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Info and debug events are expected failures (bad queries, NoRoute).
			if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
				return nil
			}
			return event
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	return true, nil
}

// Flush flushes the Sentry buffer
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureErrorWithContext captures err with the correlation ID of ctx and
// any extras attached. A *gin.Context also contributes the request, its
// status code as severity and the matched endpoint.
func CaptureErrorWithContext(ctx context.Context, err error, extras map[string]interface{}) *sentry.EventID {
	if err == nil {
		return nil
	}

	ginCtx, isGin := ctx.(*gin.Context)
	requestCtx := ctx
	if isGin && ginCtx.Request != nil {
		requestCtx = ginCtx.Request.Context()
	}

	hub := sentry.GetHubFromContext(requestCtx)
	if hub == nil && isGin {
		hub = sentrygin.GetHubFromContext(ginCtx)
	}
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	var eventID *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		if correlationID := logger.CorrelationIDFromContext(requestCtx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		if isGin {
			addGinContextToScope(scope, ginCtx)
		}
		eventID = hub.CaptureException(err)
	})

	return eventID
}

// AddBreadcrumbForRequest adds a breadcrumb for HTTP request
func AddBreadcrumbForRequest(method, url string, statusCode int, duration time.Duration) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "http",
		Category:  "http.request",
		Level:     sentry.LevelInfo,
		Message:   fmt.Sprintf("%s %s", method, url),
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"method":      method,
			"url":         url,
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// ShouldReportError reports server-side failures only. Client errors (4xx)
// other than 429 are expected and stay out of Sentry.
func ShouldReportError(err error, statusCode int) bool {
	if err == nil {
		return false
	}

	if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
		return false
	}

	return true
}

// LevelForStatus maps HTTP status codes to Sentry severity levels
func LevelForStatus(statusCode int) sentry.Level {
	switch {
	case statusCode >= 500:
		return sentry.LevelError
	case statusCode == http.StatusTooManyRequests:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}

func addGinContextToScope(scope *sentry.Scope, c *gin.Context) {
	statusCode := c.Writer.Status()

	scope.SetRequest(c.Request)
	scope.SetLevel(LevelForStatus(statusCode))
	scope.SetTag("http.method", c.Request.Method)
	scope.SetTag("http.status_code", strconv.Itoa(statusCode))
	if endpoint := c.FullPath(); endpoint != "" {
		scope.SetTag("endpoint", endpoint)
	}

	if traceID := c.Writer.Header().Get("X-Trace-ID"); traceID != "" {
		scope.SetTag("trace_id", traceID)
	}

	scope.SetContext("http", map[string]interface{}{
		"method":      c.Request.Method,
		"url":         c.Request.URL.String(),
		"query":       c.Request.URL.RawQuery,
		"headers":     sanitizeHeaders(c.Request.Header),
		"remote_addr": c.ClientIP(),
		"user_agent":  c.Request.UserAgent(),
	})
}

func sanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string)
	sensitiveHeaders := map[string]bool{
		"Authorization": true,
		"Cookie":        true,
		"X-Api-Key":     true,
	}

	for key, values := range headers {
		if sensitiveHeaders[http.CanonicalHeaderKey(key)] {
			sanitized[key] = "[REDACTED]"
		} else if len(values) > 0 {
			sanitized[key] = values[0]
		}
	}

	return sanitized
}
