package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindAlreadyExists
	KindValidation
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindValidation:
		return "validation_failed"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unexpected"
	}
}

// ValidationMessage is the fixed instruction returned with every validation failure.
const ValidationMessage = "Please, fill the required fields: name (must not be blank), price and stock (must not be negative or null)."

// Error is a business error carrying its Kind.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field validation messages keyed by JSON field name.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that no product matched key = value.
func NotFound(key string, value any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Product not found with %s: %v", key, value),
	}
}

// AlreadyExists reports a product name collision.
func AlreadyExists(name string) *Error {
	return &Error{
		Kind:    KindAlreadyExists,
		Message: fmt.Sprintf("Product already exists with the name: %s", name),
	}
}

// Conflict is a generic AlreadyExists with a caller supplied message.
func Conflict(msg string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: msg}
}

// Validation reports a product payload or path parameter that failed its constraints.
func Validation(fields map[string]string) *Error {
	return Invalid(ValidationMessage, fields)
}

// Invalid is a validation failure with a caller supplied message.
func Invalid(msg string, fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: msg,
		Fields:  fields,
	}
}

func Unauthorized(msg string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: err}
}

// Unexpected wraps an error that has no business meaning.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Err: err}
}

// KindOf returns the Kind of err, or KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
