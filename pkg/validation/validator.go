package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the global validator instance. Field names in errors are the
// JSON keys declared in struct tags, not the Go identifiers.
var Validate *validator.Validate

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(jsonTagName)

	// Register custom validators
	_ = Validate.RegisterValidation("latitude", validateLatitude)
	_ = Validate.RegisterValidation("longitude", validateLongitude)
	_ = Validate.RegisterValidation("lonlat", validateLonLat)
	_ = Validate.RegisterValidation("bearing", validateBearing)
}

// FieldError is a single failed rule with its JSON path, e.g.
// "routes[0].legs[1].steps[2].maneuver.bearing_after".
type FieldError struct {
	Path  string
	Tag   string
	Param string
}

// Message renders the failed rule in plain words.
func (e FieldError) Message() string {
	switch e.Tag {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + e.Param
	case "min":
		return "must be >= " + e.Param
	case "max":
		return "must be <= " + e.Param
	case "len":
		return fmt.Sprintf("must have exactly %s elements", e.Param)
	case "eqfield":
		return "must have the same length as " + e.Param
	case "bearing":
		return "must be a compass bearing between 0 and 359"
	case "bearing_index":
		return "must be a valid index into bearings"
	case "lonlat":
		return "must be [lon, lat] with lon in [-180, 180] and lat in [-90, 90]"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	default:
		return fmt.Sprintf("failed %q validation", e.Tag)
	}
}

// ValidateStruct validates s and returns the failed rules in field order.
// A nil slice means s is valid. Non-validation errors (e.g. a nil pointer
// passed in) are returned as is.
func ValidateStruct(s interface{}) ([]FieldError, error) {
	err := Validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			Path:  trimRoot(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: jsonParam(fe),
		})
	}
	return fields, nil
}

// jsonTagName makes the validator report JSON keys.
func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// jsonParam rewrites cross-field params (eqfield=Entry) to the sibling's JSON key.
func jsonParam(fe validator.FieldError) string {
	if fe.Tag() != "eqfield" {
		return fe.Param()
	}
	// FieldError does not expose the sibling's tag, so assume snake_case keys.
	return toSnake(fe.Param())
}

// trimRoot drops the top-level struct type name from a namespace.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// validateLatitude checks if latitude is within valid range (-90 to 90)
func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

// validateLongitude checks if longitude is within valid range (-180 to 180)
func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}

// validateLonLat checks a two-element [lon, lat] float slice.
func validateLonLat(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return false
	}
	if field.Len() != 2 {
		return false
	}
	lon, lat := field.Index(0).Float(), field.Index(1).Float()
	return lon >= -180.0 && lon <= 180.0 && lat >= -90.0 && lat <= 90.0
}

// validateBearing checks a compass bearing in whole degrees.
func validateBearing(fl validator.FieldLevel) bool {
	bearing := fl.Field().Int()
	return bearing >= 0 && bearing <= 359
}
