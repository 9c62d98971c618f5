package ai

import (
	"errors"
	"fmt"
)

// ErrRetryExhausted is wrapped by ModelError when every attempt failed.
var ErrRetryExhausted = errors.New("all retry attempts failed")

// ModelError reports a failed model call: transport failure, non-success
// status or a malformed response. No partial report accompanies it.
type ModelError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ModelError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s request failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// StatusError is a non-success HTTP response from a provider endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}
