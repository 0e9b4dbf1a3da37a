package serr

import (
	"fmt"
	"runtime/debug"
)

// ServiceError is an error that knows which HTTP status it should be reported with.
// Env carries request details that help when the error ends up in the logs.
type ServiceError struct {
	Err        error
	Msg        string
	StackTrace string
	StatusCode int
	Env        map[string]string
}

func NewServiceError(err error, statusCode int, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Msg:        fmt.Sprintf(msg, args...),
		StatusCode: statusCode,
		StackTrace: string(debug.Stack()),
		Env:        make(map[string]string),
	}
}

// With records a key/value pair in Env and returns the error for chaining.
func (e *ServiceError) With(key string, val any) *ServiceError {
	e.Env[key] = fmt.Sprint(val)
	return e
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
