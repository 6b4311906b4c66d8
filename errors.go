package kawatrpc

import (
	"errors"
	"fmt"
	"time"
)

// Error type constants carried in ClientError.Type.
const (
	ErrorTypeConfiguration = "Configuration"
	ErrorTypeEncoding      = "Encoding"
	ErrorTypeTransport     = "Transport"
	ErrorTypeNotFound      = "NotFound"
	ErrorTypeProtocol      = "Protocol"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCookiesDisabled is returned by GetCookie/SetCookie when cookie
	// support was not enabled at construction.
	ErrCookiesDisabled = errors.New("kawatrpc: cookie support not enabled")

	// ErrNotFound is returned when the server answers a call with HTTP 404.
	ErrNotFound = errors.New("kawatrpc: not found")
)

// ClientError is the error type delivered through a call's callback. Type
// identifies the failure class; Cause preserves the underlying error.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	Method     string
	URL        string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Method != "" {
		msg = fmt.Sprintf("%s (method %s)", msg, e.Method)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	switch target {
	case ErrCookiesDisabled:
		return e.Type == ErrorTypeConfiguration && errors.Is(e.Cause, ErrCookiesDisabled)
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	}
	return false
}

// IsFault reports whether err carries an explicit XML-RPC fault (as opposed
// to a transport failure or a malformed body) and returns its code and
// message when it does.
func IsFault(err error) (code int, msg string, ok bool) {
	var f interface {
		FaultCode() int
		FaultString() string
	}
	if errors.As(err, &f) {
		return f.FaultCode(), f.FaultString(), true
	}
	return 0, "", false
}
