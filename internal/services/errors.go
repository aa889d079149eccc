package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "Validation error"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "Validation error: " + strings.Join(parts, "; ")
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// UpstreamError is a failed call to the generative text service.
type UpstreamError struct {
	StatusCode int // 0 when no HTTP status was received
	Retryable  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError means the model output was not a valid payload for the operation.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return fmt.Sprintf("invalid model response: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrf(format string, args ...any) *ParseError {
	return &ParseError{Err: fmt.Errorf(format, args...)}
}

// SerializationError means a value could not be encoded for storage.
type SerializationError struct{ Err error }

func (e *SerializationError) Error() string { return fmt.Sprintf("serialization failed: %v", e.Err) }

func (e *SerializationError) Unwrap() error { return e.Err }

// errorClass is a short label for metrics and logs.
func errorClass(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
		ue *UpstreamError
		pe *ParseError
		se *SerializationError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ce):
		return "conflict"
	case errors.As(err, &ue):
		return "upstream"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &se):
		return "serialization"
	default:
		return "internal"
	}
}
