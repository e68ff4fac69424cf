package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by stores when the requested row does not exist
// or belongs to another user.
var ErrNotFound = errors.New("not found")

// ConfigurationError reports a bad or missing credential/setting. It is
// raised before any network call is made.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// ValidationError reports malformed user input, e.g. a non-numeric quantity.
// Requests failing validation never reach the signer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExchangeError carries a non-zero result code reported by the exchange.
// The request reached the server, so callers must not retry blindly.
type ExchangeError struct {
	Code    int
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange error %d: %s", e.Code, e.Message)
}

// NetworkError wraps a transport-level failure (timeout, connectivity,
// 5xx). The API client retries these with a bounded fixed delay.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// PersistenceError wraps a database read/write failure.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error in %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
