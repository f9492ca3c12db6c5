package fault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fault represents an application error with an HTTP status attached.
// Faults decoded from the shop backend keep the backend's message verbatim
// so callers can surface it unchanged.
type Fault struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

// Unwrap returns the wrapped error
func (f *Fault) Unwrap() error {
	return f.Err
}

// New creates a new Fault
func New(status int, message string, err error) *Fault {
	return &Fault{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// Common fault types
var (
	ErrBadRequest   = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden    = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound     = New(http.StatusNotFound, "Not found", nil)
	ErrUpstream     = New(http.StatusBadGateway, "Upstream request failed", nil)
)

// backendError mirrors the shop backend's error payload.
type backendError struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// FromResponse builds a Fault from a non-2xx backend response, consuming the
// body. The backend message is kept verbatim; an undecodable body falls back
// to a generic message keyed on the status code.
func FromResponse(resp *http.Response) *Fault {
	body, _ := io.ReadAll(resp.Body)

	var be backendError
	if err := json.Unmarshal(body, &be); err == nil && be.Message != "" {
		return &Fault{
			Status:  resp.StatusCode,
			Message: be.Message,
			Details: be.ValidationErrors,
		}
	}

	return &Fault{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}
}

// Of extracts a *Fault from err, wrapping unknown errors as an upstream
// failure so callers always get a status to respond with.
func Of(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return New(http.StatusBadGateway, "Upstream request failed", err)
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var f *Fault
	return errors.As(err, &f) && f.Status == status
}
