// Package apperr defines the error kinds surfaced to API clients.
//
// Handlers never pick failure status codes themselves; they return an *Error
// (or any other error) and the HTTP layer translates it.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for translation into an HTTP response.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateKey
	KindInvalidIdentifier
	KindTokenInvalid
	KindTokenExpired
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindUnsupportedMedia
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindInvalidIdentifier:
		return "invalid_identifier"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenExpired:
		return "token_expired"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUnsupportedMedia:
		return "unsupported_media"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is an API-facing error.
type Error struct {
	Kind Kind

	// Message is the human-readable text returned to the client.
	Message string

	// Field names the offending field for duplicate-key and identifier errors.
	Field string

	// Details holds one message per failed field for validation errors.
	Details []string

	// Err is the underlying cause, never shown to clients.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && len(e.Details) > 0 {
		msg = strings.Join(e.Details, " ")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ValidationFields builds a validation error from per-field messages.
func ValidationFields(details []string) *Error {
	return &Error{Kind: KindValidation, Details: details}
}

// Duplicate reports a unique-key collision on field. An empty message
// falls back to the standard "Duplicate <field> Entered".
func Duplicate(field, message string) *Error {
	return &Error{Kind: KindDuplicateKey, Field: field, Message: message}
}

func InvalidID(field string, cause error) *Error {
	return &Error{Kind: KindInvalidIdentifier, Field: field, Err: cause}
}

func TokenInvalid(cause error) *Error {
	return &Error{Kind: KindTokenInvalid, Err: cause}
}

func TokenExpired(cause error) *Error {
	return &Error{Kind: KindTokenExpired, Err: cause}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func UnsupportedMedia(message string) *Error {
	return &Error{Kind: KindUnsupportedMedia, Message: message}
}

func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}
