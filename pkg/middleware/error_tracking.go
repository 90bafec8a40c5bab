package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/osrm-route/pkg/common"
	"github.com/richxcame/osrm-route/pkg/errors"
)

// SentryMiddleware attaches a Sentry hub to every request.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports errors attached with c.Error, and bare 5xx answers,
// to Sentry. It belongs near the end of the middleware chain.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		errors.AddBreadcrumbForRequest(c.Request.Method, c.Request.URL.Path, statusCode, duration)

		for _, ginErr := range c.Errors {
			if errors.ShouldReportError(ginErr.Err, statusCode) {
				captureError(c, ginErr.Err, duration)
			}
		}

		if statusCode >= 500 && len(c.Errors) == 0 {
			hub := hubFor(c)
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetRequest(c.Request)
				scope.SetLevel(errors.LevelForStatus(statusCode))
				scope.SetTag("http.status_code", fmt.Sprintf("%d", statusCode))
				hub.CaptureMessage(fmt.Sprintf("HTTP %d: %s %s", statusCode, c.Request.Method, c.Request.URL.Path))
			})
		}
	}
}

// RecoveryWithSentry recovers from panics, reports them and answers 500.
func RecoveryWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				hub := hubFor(c)
				hub.Scope().SetRequest(c.Request)
				hub.RecoverWithContext(c.Request.Context(), err)
				hub.Flush(2 * time.Second)

				c.Abort()
				common.ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
			}
		}()

		c.Next()
	}
}

func captureError(c *gin.Context, err error, duration time.Duration) {
	errors.CaptureErrorWithContext(c, err, map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
	})
}

func hubFor(c *gin.Context) *sentry.Hub {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		return hub
	}
	return sentry.CurrentHub().Clone()
}
