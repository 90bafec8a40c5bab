package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/validation"
)

// Wire types mirror the OSRM JSON document. Required values are pointers so
// that an absent key is distinguishable from a zero value; the validate tags
// carry the range and shape rules. Nothing leaves this file until the whole
// document has passed validation.

// wireEnvelope is the part of every answer that is read regardless of code.
// Routes and waypoints stay raw until the code is known to be Ok.
type wireEnvelope struct {
	Code      *string         `json:"code" validate:"required"`
	Message   string          `json:"message"`
	Routes    json.RawMessage `json:"routes"`
	Waypoints json.RawMessage `json:"waypoints"`
}

// wireResponse is the body of an Ok answer.
type wireResponse struct {
	Routes    wireList[wireRoute]    `json:"routes" validate:"required,dive"`
	Waypoints wireList[wireWaypoint] `json:"waypoints" validate:"required,dive"`
}

// wireList decodes a JSON array one element at a time so that a type error
// inside an element carries the element index in its field path.
type wireList[T any] []T

func (l *wireList[T]) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		*l = nil
		return nil
	}

	list := make(wireList[T], len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &list[i]); err != nil {
			return withIndex(i, err)
		}
	}
	*l = list
	return nil
}

// withIndex prefixes the field path of a type error with "[i]". The
// enclosing decoder then prepends the key of the list itself.
func withIndex(i int, err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return err
	}
	typeErr.Field = joinPath(fmt.Sprintf("[%d]", i), typeErr.Field)
	return typeErr
}

type wireRoute struct {
	Legs       wireList[wireLeg] `json:"legs" validate:"required,dive"`
	WeightName *string           `json:"weight_name" validate:"required"`
	Weight     *float64          `json:"weight" validate:"required,gte=0"`
	Duration   *float64          `json:"duration" validate:"required,gte=0"`
	Distance   *float64          `json:"distance" validate:"required,gte=0"`
	Summary    *string           `json:"summary"`
}

type wireLeg struct {
	Steps wireList[wireStep] `json:"steps" validate:"required,dive"`
}

type wireStep struct {
	Intersections wireList[wireIntersection] `json:"intersections" validate:"required,min=1,dive"`
	DrivingSide   *string                    `json:"driving_side" validate:"required"`
	Geometry      *string                    `json:"geometry" validate:"required"`
	Maneuver      *wireManeuver              `json:"maneuver" validate:"required"`
	Name          *string                    `json:"name" validate:"required"`
	Mode          *string                    `json:"mode" validate:"required"`
	Weight        *float64                   `json:"weight" validate:"required,gte=0"`
	Duration      *float64                   `json:"duration" validate:"required,gte=0"`
	Distance      *float64                   `json:"distance" validate:"required,gte=0"`
}

type wireManeuver struct {
	BearingAfter  *int          `json:"bearing_after" validate:"required,bearing"`
	BearingBefore *int          `json:"bearing_before" validate:"required,bearing"`
	Location      *wireLocation `json:"location" validate:"required"`
	Type          *string       `json:"type" validate:"required"`
	Modifier      *string       `json:"modifier"`
	Exit          *int          `json:"exit" validate:"omitempty,min=0"`
}

type wireIntersection struct {
	Out      *int               `json:"out" validate:"omitempty,min=0"`
	In       *int               `json:"in" validate:"omitempty,min=0"`
	Entry    []bool             `json:"entry" validate:"required"`
	Bearings []int              `json:"bearings" validate:"required,eqfield=Entry,dive,bearing"`
	Location *wireLocation      `json:"location" validate:"required"`
	Lanes    wireList[wireLane] `json:"lanes" validate:"omitempty,dive"`
}

type wireLane struct {
	Valid       *bool    `json:"valid" validate:"required"`
	Indications []string `json:"indications" validate:"required"`
}

type wireWaypoint struct {
	Hint     *string       `json:"hint" validate:"required"`
	Location *wireLocation `json:"location" validate:"required"`
	Name     *string       `json:"name" validate:"required"`
	Distance *float64      `json:"distance" validate:"required,gte=0"`
}

// wireLocation is the structured coordinate shape. OSRM sends bare
// [lon, lat] arrays, which UnmarshalJSON rewrites into this shape first.
type wireLocation struct {
	Coordinates []float64 `json:"coordinates" validate:"required,len=2,lonlat"`
}

func (l *wireLocation) UnmarshalJSON(data []byte) error {
	type structured wireLocation
	var s structured
	if err := json.Unmarshal(normalizeLocation(data), &s); err != nil {
		return err
	}
	*l = wireLocation(s)
	return nil
}

// normalizeLocation wraps a bare array as {"coordinates": [...]}; any other
// shape is returned untouched for the decoder to accept or reject.
func normalizeLocation(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return data
	}

	out := make([]byte, 0, len(trimmed)+len(`{"coordinates":}`))
	out = append(out, `{"coordinates":`...)
	out = append(out, trimmed...)
	return append(out, '}')
}

func init() {
	validation.Validate.RegisterStructValidation(validateWireIntersection, wireIntersection{})
}

// validateWireIntersection checks that in/out index into the bearings list.
func validateWireIntersection(sl validator.StructLevel) {
	in := sl.Current().Interface().(wireIntersection)
	if in.Out != nil && *in.Out >= len(in.Bearings) {
		sl.ReportError(*in.Out, "out", "Out", "bearing_index", "")
	}
	if in.In != nil && *in.In >= len(in.Bearings) {
		sl.ReportError(*in.In, "in", "In", "bearing_index", "")
	}
}

// The conversions below run only on validated documents, so required
// pointers are non-nil.

// toModel fills the routes and waypoints of resp.
func (w *wireResponse) toModel(resp *Response) (*Response, error) {
	if w.Routes != nil {
		resp.Routes = make([]Route, 0, len(w.Routes))
		for _, r := range w.Routes {
			route, err := r.toModel()
			if err != nil {
				return nil, err
			}
			resp.Routes = append(resp.Routes, route)
		}
	}

	if w.Waypoints != nil {
		resp.Waypoints = make([]Waypoint, 0, len(w.Waypoints))
		for _, wp := range w.Waypoints {
			location, err := wp.Location.toPoint()
			if err != nil {
				return nil, err
			}
			resp.Waypoints = append(resp.Waypoints, Waypoint{
				Hint:     *wp.Hint,
				Location: location,
				Name:     *wp.Name,
				Distance: *wp.Distance,
			})
		}
	}

	return resp, nil
}

func (w *wireRoute) toModel() (Route, error) {
	route := Route{
		Legs:       make([]Leg, 0, len(w.Legs)),
		WeightName: *w.WeightName,
		Weight:     *w.Weight,
		Duration:   *w.Duration,
		Distance:   *w.Distance,
	}
	if w.Summary != nil {
		route.Summary = *w.Summary
	}

	for _, l := range w.Legs {
		leg := Leg{Steps: make([]Step, 0, len(l.Steps))}
		for _, s := range l.Steps {
			step, err := s.toModel()
			if err != nil {
				return Route{}, err
			}
			leg.Steps = append(leg.Steps, step)
		}
		route.Legs = append(route.Legs, leg)
	}

	return route, nil
}

func (w *wireStep) toModel() (Step, error) {
	maneuverLocation, err := w.Maneuver.Location.toPoint()
	if err != nil {
		return Step{}, err
	}

	step := Step{
		Intersections: make([]Intersection, 0, len(w.Intersections)),
		DrivingSide:   *w.DrivingSide,
		Geometry:      *w.Geometry,
		Maneuver: Maneuver{
			BearingAfter:  *w.Maneuver.BearingAfter,
			BearingBefore: *w.Maneuver.BearingBefore,
			Location:      maneuverLocation,
			Type:          *w.Maneuver.Type,
			Modifier:      w.Maneuver.Modifier,
			Exit:          w.Maneuver.Exit,
		},
		Name:     *w.Name,
		Mode:     *w.Mode,
		Weight:   *w.Weight,
		Duration: *w.Duration,
		Distance: *w.Distance,
	}

	for _, wi := range w.Intersections {
		location, err := wi.Location.toPoint()
		if err != nil {
			return Step{}, err
		}

		intersection := Intersection{
			Out:      wi.Out,
			In:       wi.In,
			Entry:    wi.Entry,
			Bearings: wi.Bearings,
			Location: location,
		}
		if wi.Lanes != nil {
			intersection.Lanes = make([]Lane, 0, len(wi.Lanes))
			for _, lane := range wi.Lanes {
				intersection.Lanes = append(intersection.Lanes, Lane{
					Valid:       *lane.Valid,
					Indications: lane.Indications,
				})
			}
		}
		step.Intersections = append(step.Intersections, intersection)
	}

	return step, nil
}

func (l *wireLocation) toPoint() (geo.Point, error) {
	p, err := geo.NewPoint(l.Coordinates[0], l.Coordinates[1])
	if err != nil {
		return geo.Point{}, &ValidationError{Path: "location", Reason: err.Error()}
	}
	return p, nil
}
