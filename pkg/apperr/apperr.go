// Package apperr defines the error kinds shared by services, stores and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is checks. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation = &Error{Kind: KindValidation, Message: "invalid argument"}
	ErrConflict   = &Error{Kind: KindConflict, Message: "duplicate key"}
	ErrTransport  = &Error{Kind: KindTransport, Message: "transport failure"}
	ErrInternal   = &Error{Kind: KindInternal, Message: "internal error"}
)

// Error is a domain error with a kind used for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Details is optional extra payload for the response (e.g. the conflicting record).
	Details any
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

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Conflict(msg string, existing any) *Error {
	return &Error{Kind: KindConflict, Message: msg, Details: existing}
}

func Transport(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

// Internal wraps err unless it already carries a Kind.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
