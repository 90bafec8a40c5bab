package osrm

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/osrm-route/internal/route"
	"github.com/richxcame/osrm-route/pkg/common"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/httpclient"
	"github.com/richxcame/osrm-route/pkg/resilience"
)

// RouteService is the part of Service the handler needs.
type RouteService interface {
	GetProjectedRoute(ctx context.Context, origin, destination geo.Point) (*ProjectedRoute, error)
}

// Handler handles HTTP requests for routes
type Handler struct {
	service RouteService
}

// NewHandler creates a new route handler
func NewHandler(service RouteService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers route endpoints under rg, e.g. /api/v1.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/routes", h.GetRoute)
}

// GetRoute handles GET /routes?from=lon,lat&to=lon,lat
func (h *Handler) GetRoute(c *gin.Context) {
	origin, ok := common.ParsePointQuery(c, "from")
	if !ok {
		return
	}
	destination, ok := common.ParsePointQuery(c, "to")
	if !ok {
		return
	}

	result, err := h.service.GetProjectedRoute(c.Request.Context(), origin, destination)
	if common.HandleServiceError(c, toAppError(err), "failed to get route") {
		return
	}

	common.SuccessResponse(c, result)
}

// toAppError maps route failures to HTTP answers. Unknown errors pass
// through and become 500s.
func toAppError(err error) error {
	if err == nil {
		return nil
	}

	var logicalErr *route.LogicalError
	if errors.As(err, &logicalErr) {
		return common.NewUnprocessableError(logicalErr.Error(), err).WithErrorCode(logicalErr.Code)
	}

	switch {
	case errors.Is(err, route.ErrValidation):
		return common.NewBadGatewayError("routing service returned an invalid response", err).WithErrorCode("InvalidResponse")
	case errors.Is(err, geo.ErrDomain):
		return common.NewBadGatewayError("route cannot be projected", err).WithErrorCode("ProjectionDomain")
	case errors.Is(err, resilience.ErrCircuitOpen):
		return common.NewServiceUnavailableError("routing service temporarily unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewGatewayTimeoutError("routing service timed out", err)
	case errors.Is(err, httpclient.ErrTransport):
		return common.NewBadGatewayError("routing service request failed", err)
	default:
		return err
	}
}
