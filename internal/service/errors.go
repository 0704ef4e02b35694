package service

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is a non-2xx response from the task API.
type RemoteError struct {
	// Status is the HTTP status code.
	Status int

	// Message is "HTTP {status}: {reason phrase}".
	Message string

	// Data is the decoded response body, or an empty object when the body
	// was not valid JSON.
	Data any
}

// NewRemoteError builds a RemoteError with the standard message.
// An empty reason falls back to the standard text for the status code.
func NewRemoteError(status int, reason string, data any) *RemoteError {
	if reason == "" {
		reason = http.StatusText(status)
	}
	if data == nil {
		data = map[string]any{}
	}
	return &RemoteError{
		Status:  status,
		Message: fmt.Sprintf("HTTP %d: %s", status, reason),
		Data:    data,
	}
}

func (e *RemoteError) Error() string {
	return e.Message
}

// FieldErrors returns the per-field messages of a validation payload
// ({"errors": {"field": "message"}}). Returns nil if the payload has none.
func (e *RemoteError) FieldErrors() map[string]string {
	body, ok := e.Data.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := body["errors"].(map[string]any)
	if !ok {
		return nil
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			fields[k] = s
		} else {
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields
}

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a failure returned by a Service.
type ErrorKind int

const (
	// KindUnknown is any error that is neither remote nor network.
	KindUnknown ErrorKind = iota

	// KindValidation is a 400 response carrying field errors.
	KindValidation

	// KindRemote is any other non-2xx response.
	KindRemote

	// KindNetwork means the server was never reached.
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRemote:
		return "remote"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify reports which kind of failure err is. A nil error is KindUnknown.
func Classify(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		if re.Status == http.StatusBadRequest {
			return KindValidation
		}
		return KindRemote
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return KindNetwork
	}
	return KindUnknown
}

// FieldErrors extracts per-field validation messages from err.
// The boolean is false unless err is a validation failure.
func FieldErrors(err error) (map[string]string, bool) {
	if Classify(err) != KindValidation {
		return nil, false
	}
	var re *RemoteError
	errors.As(err, &re)
	return re.FieldErrors(), true
}

// StatusCode returns the HTTP status of a RemoteError, or 0.
func StatusCode(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the task API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
