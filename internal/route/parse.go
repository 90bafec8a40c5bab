package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/richxcame/osrm-route/pkg/validation"
)

// Parse decodes and validates a raw OSRM route response. Any structural
// problem rejects the whole document with a *ValidationError; no partially
// built Response is ever returned.
//
// Only code and message are read from a non-Ok answer: its routes and
// waypoints are neither decoded nor validated, and the returned Response
// carries none. Parse does not treat a non-Ok code as a failure, call
// Response.Err for that.
func Parse(raw []byte) (*Response, error) {
	var envelope wireEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, decodeError("", err)
	}
	if err := validateWire(&envelope); err != nil {
		return nil, err
	}

	resp := &Response{
		Code:    *envelope.Code,
		Message: envelope.Message,
	}
	if !resp.OK() {
		return resp, nil
	}

	var body wireResponse
	if err := decodeMember("routes", envelope.Routes, &body.Routes); err != nil {
		return nil, err
	}
	if err := decodeMember("waypoints", envelope.Waypoints, &body.Waypoints); err != nil {
		return nil, err
	}
	if err := validateWire(&body); err != nil {
		return nil, err
	}

	return body.toModel(resp)
}

// decodeMember decodes one top-level member held back by the envelope. An
// absent member leaves v untouched for the required rules to report.
func decodeMember(key string, raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return decodeError(key, err)
	}
	return nil
}

// validateWire runs the validate tags and reports the first failed rule.
func validateWire(v interface{}) error {
	fields, err := validation.ValidateStruct(v)
	if err != nil {
		return fmt.Errorf("failed to validate route response: %w", err)
	}
	if len(fields) > 0 {
		return &ValidationError{Path: fields[0].Path, Reason: fields[0].Message()}
	}
	return nil
}

// decodeError turns encoding/json failures into ValidationErrors. prefix is
// the key of the member being decoded, empty for the whole document.
func decodeError(prefix string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := joinPath(prefix, strings.ReplaceAll(typeErr.Field, ".[", "["))
		if path == "" {
			path = rootPath
		}
		return &ValidationError{
			Path:   path,
			Reason: fmt.Sprintf("expected %s, got %s", jsonKind(typeErr.Type), typeErr.Value),
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ValidationError{
			Path:   rootPath,
			Reason: fmt.Sprintf("malformed JSON at offset %d: %v", syntaxErr.Offset, syntaxErr),
		}
	}

	path := prefix
	if path == "" {
		path = rootPath
	}
	return &ValidationError{Path: path, Reason: err.Error()}
}

// joinPath appends child to parent, e.g. "routes" + "[0].legs".
func joinPath(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	case strings.HasPrefix(child, "["):
		return parent + child
	default:
		return parent + "." + child
	}
}

// jsonKind names the JSON type a Go destination type expects.
func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}
