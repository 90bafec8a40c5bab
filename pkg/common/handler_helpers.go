package common

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/logger"
	"github.com/richxcame/osrm-route/pkg/validation"
	"go.uber.org/zap"
)

// HandleServiceError writes the response for err and reports whether it did.
// AppErrors keep their status; anything else is logged and answered with
// 500 and fallbackMessage. The error is attached to the gin context so the
// error tracking middleware can see it.
//
// Usage:
//
//	result, err := h.service.DoSomething(ctx, req)
//	if HandleServiceError(c, err, "failed to do something") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	_ = c.Error(err)

	var appErr *AppError
	if errors.As(err, &appErr) {
		AppErrorResponse(c, appErr)
		return true
	}

	logger.ErrorContext(c.Request.Context(), fallbackMessage, zap.Error(err))
	AppErrorResponse(c, NewInternalError(fallbackMessage, err))
	return true
}

// pointQuery is a "lon,lat" query value split into its parts.
type pointQuery struct {
	Lon float64 `json:"lon" validate:"longitude"`
	Lat float64 `json:"lat" validate:"latitude"`
}

// ParsePointQuery reads a required "lon,lat" query parameter.
// Returns the point and true on success, or sends a 400 and returns false.
//
// Usage:
//
//	origin, ok := ParsePointQuery(c, "from")
//	if !ok {
//	    return
//	}
func ParsePointQuery(c *gin.Context, name string) (geo.Point, bool) {
	raw := c.Query(name)
	if raw == "" {
		AppErrorResponse(c, NewBadRequestError(name+" is required", nil))
		return geo.Point{}, false
	}

	var q pointQuery
	var err error
	q.Lon, q.Lat, err = geo.ParseLonLat(raw)
	if err != nil {
		AppErrorResponse(c, NewBadRequestError("invalid "+name+": "+err.Error(), err))
		return geo.Point{}, false
	}

	fields, err := validation.ValidateStruct(&q)
	if err != nil {
		AppErrorResponse(c, NewBadRequestError("invalid "+name, err))
		return geo.Point{}, false
	}
	if len(fields) > 0 {
		message := fmt.Sprintf("invalid %s: %s %s", name, fields[0].Path, fields[0].Message())
		AppErrorResponse(c, NewBadRequestError(message, geo.ErrInvalidPoint))
		return geo.Point{}, false
	}

	p, err := geo.NewPoint(q.Lon, q.Lat)
	if err != nil {
		AppErrorResponse(c, NewBadRequestError("invalid "+name+": "+err.Error(), err))
		return geo.Point{}, false
	}

	return p, true
}
