package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes a field value rejected during ingest or entry.
// It is row-scoped: the batch carries on without the row.
type ValidationError struct {
	Row    int // 1-based data row number; 0 when not from a file
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

// ValidationErrors collects every field failure of a single record.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// WithRow stamps the data row number onto every error.
func (es ValidationErrors) WithRow(row int) ValidationErrors {
	for _, e := range es {
		e.Row = row
	}
	return es
}

// NotFoundError is returned when a lookup matches nothing.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project not found: %s", e.Identifier)
}

// StoreError wraps a failure of the underlying record store. The in-flight
// transaction, if any, has been rolled back when it is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// MalformedInputError rejects a whole ingest batch before any store access.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsStoreError reports whether err is or wraps a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsValidation reports whether err is a single or collected validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
