// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInsufficientPoints
	KindAlreadyApplied
	KindPaymentVerification
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindInsufficientPoints:
		return "INSUFFICIENT_POINTS"
	case KindAlreadyApplied:
		return "ALREADY_APPLIED"
	case KindPaymentVerification:
		return "PAYMENT_VERIFICATION_FAILED"
	case KindAuthorization:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps a kind to its response status. State-guard failures are
// reported as 400, not 409.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindInsufficientPoints, KindAlreadyApplied, KindPaymentVerification:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: kind.String(), Message: message}
}

// WithCode returns a copy carrying a more specific code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// Wrap attaches a cause. errors.Is matches both the returned error and the
// sentinel it was built from when sentinel is an *Error.
func Wrap(sentinel *Error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &wrapped{sentinel: sentinel, cause: cause}
}

type wrapped struct {
	sentinel *Error
	cause    error
}

func (w *wrapped) Error() string {
	return w.sentinel.Message + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error { return []error{w.sentinel, w.cause} }

func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }
func Forbidden(message string) *Error  { return New(KindAuthorization, message) }
func Internal(message string) *Error   { return New(KindInternal, message) }

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}
