package route

import (
	"fmt"
	"strings"

	"github.com/richxcame/osrm-route/pkg/geo"
)

// CodeOk is the OSRM status code for a successful request. Comparison is
// case-insensitive.
const CodeOk = "Ok"

// The JSON tags below are the external key mapping used for serialization;
// the parse side declares the same keys on the wire types in wire.go.

// Response is the top-level OSRM route service answer.
type Response struct {
	Code      string     `json:"code"`
	Message   string     `json:"message,omitempty"`
	Routes    []Route    `json:"routes"`
	Waypoints []Waypoint `json:"waypoints"`
}

// Route is one route alternative between the requested waypoints.
type Route struct {
	Legs       []Leg   `json:"legs"`
	WeightName string  `json:"weight_name"`
	Weight     float64 `json:"weight"`
	Duration   float64 `json:"duration"` // seconds
	Distance   float64 `json:"distance"` // meters
	Summary    string  `json:"summary"`
}

// Leg is the travel between two consecutive waypoints.
type Leg struct {
	Steps []Step `json:"steps"`
}

// Step is a maneuver-bounded segment of a leg.
type Step struct {
	Intersections []Intersection `json:"intersections"`
	DrivingSide   string         `json:"driving_side"`
	Geometry      string         `json:"geometry"` // encoded polyline, not decoded
	Maneuver      Maneuver       `json:"maneuver"`
	Name          string         `json:"name"`
	Mode          string         `json:"mode"`
	Weight        float64        `json:"weight"`
	Duration      float64        `json:"duration"`
	Distance      float64        `json:"distance"`
}

// Maneuver describes the action taken at the start of a step.
type Maneuver struct {
	BearingAfter  int       `json:"bearing_after"`
	BearingBefore int       `json:"bearing_before"`
	Location      geo.Point `json:"location"`
	Type          string    `json:"type"`
	Modifier      *string   `json:"modifier,omitempty"`
	Exit          *int      `json:"exit,omitempty"`
}

// Intersection is a routing decision point along a step. Entry and Bearings
// always have the same length.
type Intersection struct {
	Out      *int      `json:"out,omitempty"`
	In       *int      `json:"in,omitempty"`
	Entry    []bool    `json:"entry"`
	Bearings []int     `json:"bearings"`
	Location geo.Point `json:"location"`
	Lanes    []Lane    `json:"lanes,omitempty"`
}

// Lane is turn-lane guidance at an intersection.
type Lane struct {
	Valid       bool     `json:"valid"`
	Indications []string `json:"indications"`
}

// Waypoint is an input coordinate snapped to the road network.
type Waypoint struct {
	Hint     string    `json:"hint"` // opaque, passed through verbatim
	Location geo.Point `json:"location"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"` // snap distance in meters
}

// OK reports whether the response code signals success.
func (r *Response) OK() bool {
	return strings.EqualFold(r.Code, CodeOk)
}

// Err returns a *LogicalError when the code is not Ok. Routes and Waypoints
// must not be relied upon when Err is non-nil.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &LogicalError{Code: r.Code, Message: r.Message}
}

// ManeuverLocations returns the maneuver location of every step, in travel order.
func (r *Route) ManeuverLocations() []geo.Point {
	var points []geo.Point
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			points = append(points, step.Maneuver.Location)
		}
	}
	return points
}

// ProjectManeuvers projects every maneuver location to Web Mercator.
func (r *Route) ProjectManeuvers() ([]geo.Projected, error) {
	locations := r.ManeuverLocations()
	projected := make([]geo.Projected, 0, len(locations))
	for i, p := range locations {
		xy, err := geo.Project(p)
		if err != nil {
			return nil, fmt.Errorf("maneuver %d: %w", i, err)
		}
		projected = append(projected, xy)
	}
	return projected, nil
}
