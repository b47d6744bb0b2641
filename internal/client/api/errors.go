package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/atinyakov/Workboard/internal/models"
)

// APIError is a response that reached the server and came back with a non-2xx status.
// Envelope is set only when the body was a JSON failure envelope; any other
// body is kept, truncated, in Body.
type APIError struct {
	StatusCode int
	Envelope   models.ErrorEnvelope
	Body       string
}

func (e *APIError) Error() string {
	if e.Envelope.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Envelope.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NetworkError is a request that never got a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Kind classifies an error returned by Call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindAuth
	KindServer
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	}
	return "unknown"
}

// KindOf classifies err. A 4xx carrying field-level errors is a validation
// error regardless of its exact status.
func KindOf(err error) Kind {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindUnknown
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return KindAuth
	case apiErr.StatusCode >= 500:
		return KindServer
	case apiErr.StatusCode >= 400 && apiErr.Envelope.Errors != nil:
		return KindValidation
	case apiErr.StatusCode >= 400:
		return KindClient
	}
	return KindUnknown
}

// Envelope returns the failure envelope carried by err, if any.
func Envelope(err error) (models.ErrorEnvelope, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Envelope, true
	}
	return models.ErrorEnvelope{}, false
}
