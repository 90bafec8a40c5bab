package route

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("route response validation failed")
	// ErrLogical is matched by every *LogicalError.
	ErrLogical = errors.New("routing service returned a non-Ok code")
)

// rootPath names the document itself in a ValidationError.
const rootPath = "$"

// ValidationError rejects a whole response. Path is the JSON location of the
// offending value, e.g. "routes[0].legs[0].steps[3].intersections[0].bearings".
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid route response at %s: %s", e.Path, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LogicalError is a well-formed response whose code is not Ok, e.g. NoRoute.
type LogicalError struct {
	Code    string
	Message string
}

func (e *LogicalError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("routing failed with code %q", e.Code)
	}
	return fmt.Sprintf("routing failed with code %q: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrLogical) match.
func (e *LogicalError) Is(target error) bool {
	return target == ErrLogical
}
