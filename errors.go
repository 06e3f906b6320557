package callmetrics

import (
	"errors"
	"fmt"
)

// ServiceError is an error returned by the remote service itself, as opposed to a failure of
// the transport. Only errors that classify as service errors produce metrics.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "remote service error"
	}
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s (status %d, request id %s)", msg, e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
}

// HTTPStatusCode returns the status code the remote service answered with.
func (e *ServiceError) HTTPStatusCode() int {
	return e.StatusCode
}

// statusCoder is implemented by errors from other clients that carry a remote status code.
type statusCoder interface {
	HTTPStatusCode() int
}

// ServiceStatusCode reports the remote status code carried by err, if err or any error it
// wraps is a service error.
func ServiceStatusCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		if se == nil {
			return 0, false
		}
		return se.StatusCode, true
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode(), true
	}
	return 0, false
}
