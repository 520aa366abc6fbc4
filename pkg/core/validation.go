package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Validation detail types
const (
	TypeMissing          = "missing"
	TypeJSONInvalid      = "json_invalid"
	TypeFloat            = "float_type"
	TypeString           = "string_type"
	TypeGreaterThan      = "greater_than"
	TypeGreaterThanEqual = "greater_than_equal"
)

// DecodeBody reads a JSON object from r into dst. Every name in required
// must be present and non-null, and every field must have the right JSON
// type; numeric strings are not accepted for numbers. Unknown fields are
// ignored. Failures are returned as a validation *Error.
func DecodeBody(r io.Reader, dst any, required ...string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return NewValidationError(FieldError{
			Loc:  []string{"body"},
			Msg:  fmt.Sprintf("could not read request body: %v", err),
			Type: TypeJSONInvalid,
		})
	}
	return DecodeJSON(data, dst, required...)
}

// DecodeJSON is DecodeBody on an in-memory document.
func DecodeJSON(data []byte, dst any, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		msg := "JSON decode error"
		if err != nil {
			msg = fmt.Sprintf("JSON decode error: %v", err)
		}
		return NewValidationError(FieldError{Loc: []string{"body"}, Msg: msg, Type: TypeJSONInvalid})
	}

	var missing []FieldError
	for _, name := range required {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			missing = append(missing, FieldError{
				Loc:  []string{"body", name},
				Msg:  "Field required",
				Type: TypeMissing,
			})
		}
	}
	if len(missing) > 0 {
		return NewValidationError(missing...)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return NewValidationError(typeFieldError(typeErr))
		}
		return NewValidationError(FieldError{Loc: []string{"body"}, Msg: err.Error(), Type: TypeJSONInvalid})
	}
	return nil
}

func typeFieldError(e *json.UnmarshalTypeError) FieldError {
	kind := e.Type.Kind()
	if kind == reflect.Pointer {
		kind = e.Type.Elem().Kind()
	}

	fe := FieldError{Loc: []string{"body", e.Field}}
	switch kind {
	case reflect.Float32, reflect.Float64:
		fe.Type = TypeFloat
		fe.Msg = "Input should be a valid number"
	case reflect.String:
		fe.Type = TypeString
		fe.Msg = "Input should be a valid string"
	default:
		fe.Type = TypeJSONInvalid
		fe.Msg = fmt.Sprintf("Input has the wrong type %s", e.Value)
	}
	return fe
}

// RangeDetail builds the detail entry for a value outside its bound.
func RangeDetail(field, bound string, limit float64) FieldError {
	msg := fmt.Sprintf("Input should be greater than or equal to %g", limit)
	if bound == TypeGreaterThan {
		msg = fmt.Sprintf("Input should be greater than %g", limit)
	}
	return FieldError{Loc: []string{"body", field}, Msg: msg, Type: bound}
}
