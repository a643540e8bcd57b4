package datasource

import (
	"errors"
	"fmt"
)

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "timeout")
	Message string // Error message
	Err     error  // Underlying error
}

func (e *DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeTimeout      = "timeout"
	ErrCodeNetworkError = "network_error"
	ErrCodeServerError  = "server_error"
	ErrCodeInvalidData  = "invalid_data"
	ErrCodeCircuitOpen  = "circuit_open"
)

var (
	// ErrSourceUnavailable covers transport failures, error statuses and an open circuit.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceTimeout is an ErrSourceUnavailable caused by the fetch deadline.
	ErrSourceTimeout = fmt.Errorf("%w: timed out", ErrSourceUnavailable)
	// ErrMalformedPayload means the response had no usable session list.
	ErrMalformedPayload = errors.New("malformed source payload")

	errCircuitOpen = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error. kind is one of the
// package sentinels and cause, when present, stays reachable via errors.As.
func NewDataSourceError(source, code, message string, kind, cause error) *DataSourceError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
