// Package apperror defines the error taxonomy shared by the storefront's
// domain services and its HTTP layer.
package apperror

import (
	stderrors "errors"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error by how the caller is expected to react to it
type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindEmailNotConfirmed Kind = "email_not_confirmed"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindEmptyCart         Kind = "empty_cart"
	KindValidation        Kind = "validation_error"
	KindConflict          Kind = "conflict"
	KindTransactionFailed Kind = "transaction_failed"
	KindInternal          Kind = "internal"
)

var defaultCodes = map[Kind]string{
	KindUnauthenticated:   "UNAUTHENTICATED",
	KindEmailNotConfirmed: "EMAIL_NOT_CONFIRMED",
	KindForbidden:         "FORBIDDEN",
	KindNotFound:          "NOT_FOUND",
	KindEmptyCart:         "EMPTY_CART",
	KindValidation:        "VALIDATION_ERROR",
	KindConflict:          "CONFLICT",
	KindTransactionFailed: "TRANSACTION_FAILED",
	KindInternal:          "INTERNAL_ERROR",
}

var httpStatuses = map[Kind]int{
	KindUnauthenticated:   http.StatusUnauthorized,
	KindEmailNotConfirmed: http.StatusForbidden,
	KindForbidden:         http.StatusForbidden,
	KindNotFound:          http.StatusNotFound,
	KindEmptyCart:         http.StatusUnprocessableEntity,
	KindValidation:        http.StatusBadRequest,
	KindConflict:          http.StatusConflict,
	KindTransactionFailed: http.StatusServiceUnavailable,
	KindInternal:          http.StatusInternalServerError,
}

// Error is an application error carrying a kind, a stable business code and a
// message that is safe to show to the user.
type Error struct {
	kind    Kind
	code    string
	message string
	details string
	cause   error
}

// New creates an application error
func New(kind Kind, code, message string) *Error {
	if code == "" {
		code = defaultCodes[kind]
	}
	return &Error{kind: kind, code: code, message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on kind. A kind-level sentinel (carrying the default code)
// matches every error of that kind; a specific sentinel also needs the code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.kind != e.kind {
		return false
	}
	return t.code == defaultCodes[t.kind] || t.code == e.code
}

// Kind returns the error kind
func (e *Error) Kind() Kind { return e.kind }

// Code returns the business error code
func (e *Error) Code() string { return e.code }

// Message returns the user-friendly message
func (e *Error) Message() string { return e.message }

// Details returns optional detail text
func (e *Error) Details() string { return e.details }

// HTTPStatus maps the kind to a response status
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatuses[e.kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetails returns a copy carrying detail text
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.details = details
	return &cp
}

// WithMessage returns a copy with a different user-facing message
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.message = message
	return &cp
}

// Wrap returns a copy that records cause, with a stack trace attached
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = errors.WithStack(cause)
	return &cp
}

// Kind-level sentinels, usable with errors.Is
var (
	ErrUnauthenticated   = New(KindUnauthenticated, "", "Please sign in to continue")
	ErrEmailNotConfirmed = New(KindEmailNotConfirmed, "", "Please confirm your email address before continuing")
	ErrForbidden         = New(KindForbidden, "", "You do not have access to this resource")
	ErrNotFound          = New(KindNotFound, "", "Resource not found")
	ErrEmptyCart         = New(KindEmptyCart, "", "Your cart is empty")
	ErrValidation        = New(KindValidation, "", "Invalid request")
	ErrConflict          = New(KindConflict, "", "The request conflicts with the current state")
	ErrTransactionFailed = New(KindTransactionFailed, "", "Something went wrong while saving your changes. Please try again")
	ErrInternal          = New(KindInternal, "", "Internal server error")
)

// NotFound builds a not-found error with a custom message
func NotFound(message string) *Error {
	return ErrNotFound.WithMessage(message)
}

// Validation builds a validation error with a custom message
func Validation(message string) *Error {
	return ErrValidation.WithMessage(message)
}

// TransactionFailed wraps a store failure that aborted a unit of work
func TransactionFailed(cause error) *Error {
	return ErrTransactionFailed.Wrap(cause)
}

// Internal wraps an unexpected failure
func Internal(cause error) *Error {
	return ErrInternal.Wrap(cause)
}

// As extracts the application error from err's chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.kind
	}
	return KindInternal
}
