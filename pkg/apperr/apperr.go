// Package apperr defines the application error taxonomy.
//
// Every service returns *Error so controllers can map failures to an HTTP
// status and a stable machine-readable code without string matching:
//
//	if err := svc.Cancel(ctx, id); err != nil {
//	    response.ErrorFrom(w, err)
//	    return
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation     Code = "VALIDATION"
	CodeAuthentication Code = "AUTHENTICATION"
	CodeAuthorization  Code = "AUTHORIZATION"
	CodeNotFound       Code = "NOT_FOUND"
	CodeSignature      Code = "SIGNATURE"
	CodeConflict       Code = "CONFLICT"
	CodeUpstream       Code = "UPSTREAM"
	CodePersistence    Code = "PERSISTENCE"
	CodeRateLimited    Code = "RATE_LIMITED"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the code to the status the REST surface reports.
// Upstream and persistence failures both surface as 500 to clients.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeSignature, CodeConflict:
		return http.StatusBadRequest
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ── Constructors ─────────────────────────────────────────────────────────────

func Validation(msg string) *Error     { return &Error{Code: CodeValidation, Message: msg} }
func Authentication(msg string) *Error { return &Error{Code: CodeAuthentication, Message: msg} }
func Authorization(msg string) *Error  { return &Error{Code: CodeAuthorization, Message: msg} }
func NotFound(msg string) *Error       { return &Error{Code: CodeNotFound, Message: msg} }
func Signature(msg string) *Error      { return &Error{Code: CodeSignature, Message: msg} }
func Conflict(msg string) *Error       { return &Error{Code: CodeConflict, Message: msg} }

// Upstream wraps a failure from an external dependency (payment gateway).
func Upstream(msg string, cause error) *Error {
	return &Error{Code: CodeUpstream, Message: msg, Err: cause}
}

// Persistence wraps a document-store failure.
func Persistence(msg string, cause error) *Error {
	return &Error{Code: CodePersistence, Message: msg, Err: cause}
}

// From extracts an *Error from err, wrapping unknown errors as persistence
// failures so handlers never leak internals to clients.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: CodePersistence, Message: "Server error", Err: err}
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
