package hal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// RequestFailed is returned when the API answers with a non-2xx status.
type RequestFailed struct {
	Method     string
	URL        string
	Status     int
	StatusText string
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.StatusText)
}

// TransportError is returned when no response was received: the network is
// unreachable, the request timed out, or the circuit breaker is open.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var rf *RequestFailed
	return errors.As(err, &rf) && rf.Status == http.StatusNotFound
}

// IsUpstreamFailure reports whether err says something about the health of
// the API: transport failures and 5xx responses. Caller cancellation and
// client errors do not count.
func IsUpstreamFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Status >= http.StatusInternalServerError
	}
	var te *TransportError
	return errors.As(err, &te)
}
