package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an anticipated failure whose message is safe to return to the
// client. Anything else reaching the error translator is treated as a
// programming error and masked outside development mode.
type AppError struct {
	Code        int
	Message     string
	Operational bool
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Status maps the HTTP code onto the response envelope status: 4xx is a
// client fault ("fail"), everything else a server fault ("error").
func (e *AppError) Status() string {
	if e.Code >= 400 && e.Code < 500 {
		return "fail"
	}
	return "error"
}

func NewAppError(message string, code int) *AppError {
	return &AppError{Code: code, Message: message, Operational: true}
}

func BadRequest(message string) *AppError {
	return NewAppError(message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return NewAppError(message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(message, http.StatusForbidden)
}

func NotFound(message string) *AppError {
	return NewAppError(message, http.StatusNotFound)
}

func Conflict(message string) *AppError {
	return NewAppError(message, http.StatusConflict)
}

func Internal(message string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message}
}

// AsAppError unwraps err into an *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
