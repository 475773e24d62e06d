package core

import (
	"errors"
	"fmt"
)

const (
	msgMissingFields  = "Please provide both sender email and email content"
	msgAnalysisFailed = "Analysis failed"
	msgInProgress     = "An analysis is already in progress"
)

// ErrAnalysisInProgress is returned while another analysis is outstanding
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// ValidationError blocks a request before any network call
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError covers network failures, non-2xx statuses and unreadable responses
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail())
}

func (e *TransportError) Unwrap() error { return e.Err }

// Detail describes what went wrong on the wire
func (e *TransportError) Detail() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("API responded with status %d", e.StatusCode)
	default:
		return "unknown transport error"
	}
}

// APIError is a logical failure reported by the API with success=false
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Message maps an analysis error to the text shown next to the form
func Message(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	var transportErr *TransportError
	var apiErr *APIError

	switch {
	case errors.Is(err, ErrAnalysisInProgress):
		return msgInProgress
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &transportErr):
		return "Failed to connect to server: " + transportErr.Detail()
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
