package common_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/osrm-route/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectHandled  bool
		expectStatus   int
		expectContains string
	}{
		{
			name:          "nil error returns false",
			err:           nil,
			expectHandled: false,
		},
		{
			name:           "AppError keeps its status",
			err:            common.NewBadGatewayError("routing service unavailable", nil),
			expectHandled:  true,
			expectStatus:   http.StatusBadGateway,
			expectContains: "routing service unavailable",
		},
		{
			name:           "wrapped AppError is found",
			err:            fmt.Errorf("get route: %w", common.NewUnprocessableError("no route", nil).WithErrorCode("NoRoute")),
			expectHandled:  true,
			expectStatus:   http.StatusUnprocessableEntity,
			expectContains: "NoRoute",
		},
		{
			name:           "regular error uses fallback",
			err:            errors.New("boom"),
			expectHandled:  true,
			expectStatus:   http.StatusInternalServerError,
			expectContains: "failed to get route",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("/test")

			handled := common.HandleServiceError(c, tt.err, "failed to get route")
			assert.Equal(t, tt.expectHandled, handled)

			if tt.expectHandled {
				assert.Equal(t, tt.expectStatus, w.Code)
				assert.Contains(t, w.Body.String(), tt.expectContains)
				assert.Len(t, c.Errors, 1)
			}
		})
	}
}

func TestParsePointQuery(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		expectOK      bool
		expectLon     float64
		expectLat     float64
		expectMessage string
	}{
		{name: "valid", target: "/?from=-74.044338,4.718556", expectOK: true, expectLon: -74.044338, expectLat: 4.718556},
		{name: "missing", target: "/", expectMessage: "from is required"},
		{name: "single value", target: "/?from=-74.04", expectMessage: "invalid from: "},
		{name: "not a number", target: "/?from=west,4.7", expectMessage: `longitude "west"`},
		{name: "latitude out of range", target: "/?from=10,95", expectMessage: "invalid from: lat must be between -90 and 90"},
		{name: "longitude out of range", target: "/?from=-181,4", expectMessage: "invalid from: lon must be between -180 and 180"},
		{name: "NaN latitude", target: "/?from=10,NaN", expectMessage: "invalid from: lat must be between -90 and 90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(tt.target)

			p, ok := common.ParsePointQuery(c, "from")
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, tt.expectLon, p.Lon())
				assert.Equal(t, tt.expectLat, p.Lat())
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp common.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, http.StatusBadRequest, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.expectMessage)
			assert.Empty(t, c.Errors)
		})
	}
}

func TestReadinessProbe(t *testing.T) {
	router := gin.New()
	router.GET("/ready", common.ReadinessProbe("route-service", "1.0.0", map[string]func() error{
		"ok":     func() error { return nil },
		"broken": func() error { return errors.New("circuit breaker open") },
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp common.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["ok"].Status)
	assert.Equal(t, "circuit breaker open", resp.Checks["broken"].Message)
}

func TestNoRouteHandler(t *testing.T) {
	router := gin.New()
	router.NoRoute(common.NoRouteHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "resource not found")
}
