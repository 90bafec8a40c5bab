package route

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// FIXTURE HELPERS
// ========================================

func loadFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/driving_ok.json")
	require.NoError(t, err)
	return raw
}

// mutateFixture decodes the Ok fixture into generic maps, lets fn edit it and
// re-encodes it.
func mutateFixture(t *testing.T, fn func(doc map[string]interface{})) []byte {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(loadFixture(t), &doc))
	fn(doc)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func firstRoute(doc map[string]interface{}) map[string]interface{} {
	return doc["routes"].([]interface{})[0].(map[string]interface{})
}

func stepAt(doc map[string]interface{}, i int) map[string]interface{} {
	leg := firstRoute(doc)["legs"].([]interface{})[0].(map[string]interface{})
	return leg["steps"].([]interface{})[i].(map[string]interface{})
}

func maneuverAt(doc map[string]interface{}, i int) map[string]interface{} {
	return stepAt(doc, i)["maneuver"].(map[string]interface{})
}

func intersectionAt(doc map[string]interface{}, step, i int) map[string]interface{} {
	return stepAt(doc, step)["intersections"].([]interface{})[i].(map[string]interface{})
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	return vErr
}

// ========================================
// TESTS: Parse success
// ========================================

func TestParse_OkFixture(t *testing.T) {
	resp, err := Parse(loadFixture(t))
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "Ok", resp.Code)
	assert.True(t, resp.OK())
	assert.NoError(t, resp.Err())

	require.Len(t, resp.Routes, 1)
	route := resp.Routes[0]
	assert.Equal(t, "routability", route.WeightName)
	assert.Equal(t, 24201.3, route.Distance)
	assert.Equal(t, 1645.5, route.Duration)
	assert.Equal(t, "Calle 134, Autopista Norte", route.Summary)

	require.Len(t, route.Legs, 1)
	require.Len(t, route.Legs[0].Steps, 3)

	depart := route.Legs[0].Steps[0]
	assert.Equal(t, "depart", depart.Maneuver.Type)
	assert.Equal(t, 87, depart.Maneuver.BearingAfter)
	assert.Nil(t, depart.Maneuver.Modifier)
	assert.Nil(t, depart.Maneuver.Exit)
	assert.Equal(t, -74.044338, depart.Maneuver.Location.Lon())
	assert.Equal(t, 4.718556, depart.Maneuver.Location.Lat())
	assert.Equal(t, "qrm[|fpbMk@wF", depart.Geometry)

	turn := route.Legs[0].Steps[1]
	require.NotNil(t, turn.Maneuver.Modifier)
	assert.Equal(t, "right", *turn.Maneuver.Modifier)
	require.Len(t, turn.Intersections, 2)
	require.Len(t, turn.Intersections[0].Lanes, 2)
	assert.False(t, turn.Intersections[0].Lanes[0].Valid)
	assert.Equal(t, []string{"straight", "right"}, turn.Intersections[0].Lanes[1].Indications)
	assert.Nil(t, turn.Intersections[1].Lanes)

	require.Len(t, resp.Waypoints, 2)
	assert.Equal(t, "ZB8ugP___38AAAAAEwAAAAAAAAAAAAAA", resp.Waypoints[0].Hint)
	assert.Equal(t, 11.7, resp.Waypoints[1].Distance)
	assert.Equal(t, "", resp.Waypoints[1].Name)
}

func TestParse_IntersectionEntryMatchesBearings(t *testing.T) {
	resp, err := Parse(loadFixture(t))
	require.NoError(t, err)

	for _, leg := range resp.Routes[0].Legs {
		for _, step := range leg.Steps {
			for _, in := range step.Intersections {
				assert.Len(t, in.Entry, len(in.Bearings))
			}
		}
	}

	in := resp.Routes[0].Legs[0].Steps[1].Intersections[0]
	assert.Equal(t, []bool{true, true, false, true}, in.Entry)
	assert.Equal(t, []int{0, 90, 180, 270}, in.Bearings)
}

func TestParse_BareAndStructuredLocationsAreEquivalent(t *testing.T) {
	resp, err := Parse(loadFixture(t))
	require.NoError(t, err)

	bare := resp.Routes[0].Legs[0].Steps[1].Intersections[0].Location
	assert.Equal(t, -74.0, bare.Lon())
	assert.Equal(t, 4.7, bare.Lat())

	structured := resp.Routes[0].Legs[0].Steps[1].Intersections[1].Location
	assert.Equal(t, -73.99, structured.Lon())
	assert.Equal(t, 4.75, structured.Lat())

	// Rewriting every bare location as an object yields the same model.
	raw := mutateFixture(t, func(doc map[string]interface{}) {
		m := maneuverAt(doc, 0)
		m["location"] = map[string]interface{}{"type": "Point", "coordinates": m["location"]}
	})
	alt, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, resp.Routes[0].Legs[0].Steps[0].Maneuver.Location, alt.Routes[0].Legs[0].Steps[0].Maneuver.Location)
}

func TestParse_InWithoutOut(t *testing.T) {
	raw := mutateFixture(t, func(doc map[string]interface{}) {
		delete(intersectionAt(doc, 1, 0), "out")
	})

	resp, err := Parse(raw)
	require.NoError(t, err)

	in := resp.Routes[0].Legs[0].Steps[1].Intersections[0]
	require.NotNil(t, in.In)
	assert.Equal(t, 2, *in.In)
	assert.Nil(t, in.Out)
}

func TestParse_MissingSummaryIsEmpty(t *testing.T) {
	raw := mutateFixture(t, func(doc map[string]interface{}) {
		delete(firstRoute(doc), "summary")
	})

	resp, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "", resp.Routes[0].Summary)
}

func TestParse_RoundaboutExit(t *testing.T) {
	raw := mutateFixture(t, func(doc map[string]interface{}) {
		m := maneuverAt(doc, 1)
		m["type"] = "roundabout"
		m["exit"] = 2
	})

	resp, err := Parse(raw)
	require.NoError(t, err)

	exit := resp.Routes[0].Legs[0].Steps[1].Maneuver.Exit
	require.NotNil(t, exit)
	assert.Equal(t, 2, *exit)
}

func TestParse_EmptyRoutesWithOk(t *testing.T) {
	resp, err := Parse([]byte(`{"code":"Ok","routes":[],"waypoints":[]}`))
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Empty(t, resp.Routes)
}

func TestParse_RoundTrip(t *testing.T) {
	resp, err := Parse(loadFixture(t))
	require.NoError(t, err)

	encoded, err := json.Marshal(resp)
	require.NoError(t, err)

	again, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, resp, again)
}

// ========================================
// TESTS: Logical errors
// ========================================

func TestParse_NoRoute(t *testing.T) {
	resp, err := Parse([]byte(`{"code":"NoRoute","message":"Impossible route between points"}`))
	require.NoError(t, err)

	assert.False(t, resp.OK())
	assert.Nil(t, resp.Routes)

	routeErr := resp.Err()
	require.Error(t, routeErr)
	assert.True(t, errors.Is(routeErr, ErrLogical))
	assert.False(t, errors.Is(routeErr, ErrValidation))

	var logical *LogicalError
	require.True(t, errors.As(routeErr, &logical))
	assert.Equal(t, "NoRoute", logical.Code)
	assert.Equal(t, "Impossible route between points", logical.Message)
}

func TestParse_NoRouteWithPopulatedRoutes(t *testing.T) {
	raw := mutateFixture(t, func(doc map[string]interface{}) {
		doc["code"] = "NoRoute"
	})

	resp, err := Parse(raw)
	require.NoError(t, err)
	assert.ErrorIs(t, resp.Err(), ErrLogical)
	assert.Nil(t, resp.Routes)
}

func TestParse_NoRouteIgnoresRoutesAndWaypoints(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "partial route", raw: `{"code":"NoRoute","routes":[{"legs":[]}]}`},
		{name: "routes not an array", raw: `{"code":"NoRoute","routes":"oops"}`},
		{name: "broken waypoint", raw: `{"code":"NoSegment","message":"Could not find a matching segment","waypoints":[{"location":[999,999]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse([]byte(tt.raw))
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Nil(t, resp.Routes)
			assert.Nil(t, resp.Waypoints)

			var logical *LogicalError
			require.ErrorAs(t, resp.Err(), &logical)
			assert.NotEqual(t, CodeOk, logical.Code)
		})
	}
}

func TestParse_CodeIsCaseInsensitive(t *testing.T) {
	raw := mutateFixture(t, func(doc map[string]interface{}) {
		doc["code"] = "ok"
	})

	resp, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.NoError(t, resp.Err())
}

// ========================================
// TESTS: Validation failures
// ========================================

func TestParse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(doc map[string]interface{})
		wantPath   string
		wantReason string
	}{
		{
			name:       "missing code",
			mutate:     func(doc map[string]interface{}) { delete(doc, "code") },
			wantPath:   "code",
			wantReason: "is required",
		},
		{
			name:       "ok without routes",
			mutate:     func(doc map[string]interface{}) { delete(doc, "routes") },
			wantPath:   "routes",
			wantReason: "is required",
		},
		{
			name:       "ok without waypoints",
			mutate:     func(doc map[string]interface{}) { delete(doc, "waypoints") },
			wantPath:   "waypoints",
			wantReason: "is required",
		},
		{
			name:       "negative route distance",
			mutate:     func(doc map[string]interface{}) { firstRoute(doc)["distance"] = -1 },
			wantPath:   "routes[0].distance",
			wantReason: "must be >= 0",
		},
		{
			name:       "negative step duration",
			mutate:     func(doc map[string]interface{}) { stepAt(doc, 2)["duration"] = -0.5 },
			wantPath:   "routes[0].legs[0].steps[2].duration",
			wantReason: "must be >= 0",
		},
		{
			name:       "missing weight_name",
			mutate:     func(doc map[string]interface{}) { delete(firstRoute(doc), "weight_name") },
			wantPath:   "routes[0].weight_name",
			wantReason: "is required",
		},
		{
			name:       "missing step geometry",
			mutate:     func(doc map[string]interface{}) { delete(stepAt(doc, 0), "geometry") },
			wantPath:   "routes[0].legs[0].steps[0].geometry",
			wantReason: "is required",
		},
		{
			name:       "missing maneuver",
			mutate:     func(doc map[string]interface{}) { delete(stepAt(doc, 0), "maneuver") },
			wantPath:   "routes[0].legs[0].steps[0].maneuver",
			wantReason: "is required",
		},
		{
			name:       "missing maneuver type",
			mutate:     func(doc map[string]interface{}) { delete(maneuverAt(doc, 1), "type") },
			wantPath:   "routes[0].legs[0].steps[1].maneuver.type",
			wantReason: "is required",
		},
		{
			name:       "maneuver bearing 360",
			mutate:     func(doc map[string]interface{}) { maneuverAt(doc, 0)["bearing_after"] = 360 },
			wantPath:   "routes[0].legs[0].steps[0].maneuver.bearing_after",
			wantReason: "must be a compass bearing between 0 and 359",
		},
		{
			name:       "negative maneuver bearing",
			mutate:     func(doc map[string]interface{}) { maneuverAt(doc, 2)["bearing_before"] = -1 },
			wantPath:   "routes[0].legs[0].steps[2].maneuver.bearing_before",
			wantReason: "must be a compass bearing between 0 and 359",
		},
		{
			name:       "negative exit",
			mutate:     func(doc map[string]interface{}) { maneuverAt(doc, 1)["exit"] = -1 },
			wantPath:   "routes[0].legs[0].steps[1].maneuver.exit",
			wantReason: "must be >= 0",
		},
		{
			name:       "intersection bearing 360",
			mutate:     func(doc map[string]interface{}) { intersectionAt(doc, 1, 0)["bearings"] = []int{0, 90, 180, 360} },
			wantPath:   "routes[0].legs[0].steps[1].intersections[0].bearings[3]",
			wantReason: "must be a compass bearing between 0 and 359",
		},
		{
			name:       "entry shorter than bearings",
			mutate:     func(doc map[string]interface{}) { intersectionAt(doc, 1, 0)["entry"] = []bool{true, true, false} },
			wantPath:   "routes[0].legs[0].steps[1].intersections[0].bearings",
			wantReason: "must have the same length as entry",
		},
		{
			name:       "out beyond bearings",
			mutate:     func(doc map[string]interface{}) { intersectionAt(doc, 1, 0)["out"] = 4 },
			wantPath:   "routes[0].legs[0].steps[1].intersections[0].out",
			wantReason: "must be a valid index into bearings",
		},
		{
			name:       "in beyond bearings",
			mutate:     func(doc map[string]interface{}) { intersectionAt(doc, 2, 0)["in"] = 1 },
			wantPath:   "routes[0].legs[0].steps[2].intersections[0].in",
			wantReason: "must be a valid index into bearings",
		},
		{
			name:       "empty intersections",
			mutate:     func(doc map[string]interface{}) { stepAt(doc, 0)["intersections"] = []interface{}{} },
			wantPath:   "routes[0].legs[0].steps[0].intersections",
			wantReason: "must be >= 1",
		},
		{
			name:       "intersection without location",
			mutate:     func(doc map[string]interface{}) { delete(intersectionAt(doc, 0, 0), "location") },
			wantPath:   "routes[0].legs[0].steps[0].intersections[0].location",
			wantReason: "is required",
		},
		{
			name:       "lane without valid",
			mutate: func(doc map[string]interface{}) {
				lanes := intersectionAt(doc, 1, 0)["lanes"].([]interface{})
				delete(lanes[0].(map[string]interface{}), "valid")
			},
			wantPath:   "routes[0].legs[0].steps[1].intersections[0].lanes[0].valid",
			wantReason: "is required",
		},
		{
			name:       "latitude out of range",
			mutate:     func(doc map[string]interface{}) { maneuverAt(doc, 0)["location"] = []float64{-74.0, 95.0} },
			wantPath:   "routes[0].legs[0].steps[0].maneuver.location.coordinates",
			wantReason: "must be [lon, lat] with lon in [-180, 180] and lat in [-90, 90]",
		},
		{
			name:       "three element location",
			mutate:     func(doc map[string]interface{}) { maneuverAt(doc, 0)["location"] = []float64{-74.0, 4.7, 2600} },
			wantPath:   "routes[0].legs[0].steps[0].maneuver.location.coordinates",
			wantReason: "must have exactly 2 elements",
		},
		{
			name: "structured location without coordinates",
			mutate: func(doc map[string]interface{}) {
				intersectionAt(doc, 1, 1)["location"] = map[string]interface{}{"type": "Point"}
			},
			wantPath:   "routes[0].legs[0].steps[1].intersections[1].location.coordinates",
			wantReason: "is required",
		},
		{
			name:       "missing waypoint hint",
			mutate:     func(doc map[string]interface{}) { delete(doc["waypoints"].([]interface{})[0].(map[string]interface{}), "hint") },
			wantPath:   "waypoints[0].hint",
			wantReason: "is required",
		},
		{
			name:       "negative waypoint distance",
			mutate:     func(doc map[string]interface{}) { doc["waypoints"].([]interface{})[1].(map[string]interface{})["distance"] = -3 },
			wantPath:   "waypoints[1].distance",
			wantReason: "must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse(mutateFixture(t, tt.mutate))
			assert.Nil(t, resp)

			vErr := requireValidationError(t, err)
			assert.Equal(t, tt.wantPath, vErr.Path)
			assert.Equal(t, tt.wantReason, vErr.Reason)
			assert.False(t, errors.Is(err, ErrLogical))
		})
	}
}

func TestParse_WrongTypes(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(doc map[string]interface{})
		wantPath   string
		wantReason string
	}{
		{
			name:       "distance as string",
			mutate:     func(doc map[string]interface{}) { firstRoute(doc)["distance"] = "far" },
			wantPath:   "routes[0].distance",
			wantReason: "expected number, got string",
		},
		{
			name:       "step distance as string",
			mutate:     func(doc map[string]interface{}) { stepAt(doc, 1)["distance"] = "far" },
			wantPath:   "routes[0].legs[0].steps[1].distance",
			wantReason: "expected number, got string",
		},
		{
			name:       "fractional bearing",
			mutate:     func(doc map[string]interface{}) { maneuverAt(doc, 0)["bearing_after"] = 87.5 },
			wantPath:   "routes[0].legs[0].steps[0].maneuver.bearing_after",
			wantReason: "expected integer, got number 87.5",
		},
		{
			name:       "entry as strings",
			mutate:     func(doc map[string]interface{}) { intersectionAt(doc, 0, 0)["entry"] = []string{"yes"} },
			wantPath:   "routes[0].legs[0].steps[0].intersections[0].entry",
			wantReason: "expected boolean, got string",
		},
		{
			name: "latitude as string",
			mutate: func(doc map[string]interface{}) {
				intersectionAt(doc, 1, 1)["location"] = []interface{}{-73.99, "north"}
			},
			wantPath:   "routes[0].legs[0].steps[1].intersections[1].location.coordinates",
			wantReason: "expected number, got string",
		},
		{
			name:       "lane valid as string",
			mutate: func(doc map[string]interface{}) {
				lanes := intersectionAt(doc, 1, 0)["lanes"].([]interface{})
				lanes[1].(map[string]interface{})["valid"] = "yes"
			},
			wantPath:   "routes[0].legs[0].steps[1].intersections[0].lanes[1].valid",
			wantReason: "expected boolean, got string",
		},
		{
			name:       "step as string",
			mutate: func(doc map[string]interface{}) {
				leg := firstRoute(doc)["legs"].([]interface{})[0].(map[string]interface{})
				leg["steps"].([]interface{})[2] = "turn left"
			},
			wantPath:   "routes[0].legs[0].steps[2]",
			wantReason: "expected object, got string",
		},
		{
			name:       "routes as string",
			mutate:     func(doc map[string]interface{}) { doc["routes"] = "oops" },
			wantPath:   "routes",
			wantReason: "expected array, got string",
		},
		{
			name:       "waypoint name as number",
			mutate:     func(doc map[string]interface{}) { doc["waypoints"].([]interface{})[1].(map[string]interface{})["name"] = 7 },
			wantPath:   "waypoints[1].name",
			wantReason: "expected string, got number",
		},
		{
			name:       "code as number",
			mutate:     func(doc map[string]interface{}) { doc["code"] = 200 },
			wantPath:   "code",
			wantReason: "expected string, got number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse(mutateFixture(t, tt.mutate))
			assert.Nil(t, resp)

			vErr := requireValidationError(t, err)
			assert.Equal(t, tt.wantPath, vErr.Path)
			assert.Equal(t, tt.wantReason, vErr.Reason)
		})
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "truncated", raw: `{"code": "Ok", "routes": [`},
		{name: "empty", raw: ``},
		{name: "not json", raw: `<html>502 Bad Gateway</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse([]byte(tt.raw))
			assert.Nil(t, resp)

			vErr := requireValidationError(t, err)
			assert.Equal(t, "$", vErr.Path)
			assert.Contains(t, vErr.Reason, "malformed JSON")
		})
	}
}

func TestParse_TopLevelArray(t *testing.T) {
	resp, err := Parse([]byte(`[]`))
	assert.Nil(t, resp)

	vErr := requireValidationError(t, err)
	assert.Equal(t, "$", vErr.Path)
	assert.Equal(t, "expected object, got array", vErr.Reason)
}
