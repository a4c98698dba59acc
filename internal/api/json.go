package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/starford/articles/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// decodeJSON reads exactly one JSON object from the request body into dst.
// Syntax problems, trailing data and non-object bodies such as null are
// malformed requests; a field of the wrong JSON type is an invalid parameter.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &requestError{
				kind:    apperr.ErrMalformedRequest,
				details: fmt.Sprintf("The request body exceeds %d bytes", maxErr.Limit),
				cause:   err,
			}
		}
		return &requestError{kind: apperr.ErrMalformedRequest, cause: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &requestError{
			kind:    apperr.ErrMalformedRequest,
			details: "The request body must contain a single JSON object",
			cause:   err,
		}
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return &requestError{
			kind:    apperr.ErrMalformedRequest,
			details: "The request body must contain a single JSON object",
		}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &requestError{
				kind: apperr.ErrInvalidParameter,
				details: fmt.Sprintf("Parameter '%s' should be of type %s but received: %s",
					typeErr.Field, jsonTypeName(typeErr.Type), typeErr.Value),
				cause: err,
			}
		}
		return &requestError{kind: apperr.ErrMalformedRequest, cause: err}
	}
	return nil
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
