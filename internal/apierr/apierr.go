package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in responses. Clients branch on these, so they are
// part of the API contract.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeInvalidState = "invalid_state"
	CodeUpstream     = "upstream_error"
	CodeUnauthorized = "unauthorized"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func InvalidState(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, CodeInvalidState, fmt.Errorf(format, args...))
}

func Upstream(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstream, err)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, fmt.Errorf(format, args...))
}

// StatusOf maps any error to an HTTP status, defaulting to 500 for
// errors outside the taxonomy.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
