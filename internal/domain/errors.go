package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so callers can branch without string matching.
type Kind string

const (
	KindMissingField Kind = "missing_field"
	KindFormat       Kind = "format"
	KindConflict     Kind = "conflict"
	KindRange        Kind = "range"
	KindNotFound     Kind = "not_found"
	KindEmptyInput   Kind = "empty_input"
)

// Error is a typed validation or lookup failure. Message is written for
// callers and safe to surface as-is.
type Error struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func MissingFieldError(field, message string) *Error {
	return &Error{Kind: KindMissingField, Field: field, Message: message}
}

func FormatError(field, message string) *Error {
	return &Error{Kind: KindFormat, Field: field, Message: message}
}

func ConflictError(field, message string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

func RangeError(field, message string) *Error {
	return &Error{Kind: KindRange, Field: field, Message: message}
}

func NotFoundError(field, message string) *Error {
	return &Error{Kind: KindNotFound, Field: field, Message: message}
}

func EmptyInputError(field, message string) *Error {
	return &Error{Kind: KindEmptyInput, Field: field, Message: message}
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Returns "" for nil or untyped errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// BatchError attributes one failing batch input to its error. Index is the
// position in the submitted batch; Email identifies the input for humans.
type BatchError struct {
	Index   int    `json:"index"`
	Email   string `json:"email,omitempty"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Error renders the legacy one-line form kept for callers that want plain
// message strings instead of the structured record.
func (e BatchError) Error() string {
	return fmt.Sprintf("Validation error for %s: %s", e.Email, e.Message)
}
