package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a request the server rejected with 401. Whether a
// rejected token should force a local sign-out is the caller's policy, not
// this layer's; the client never clears the session on its own.
var ErrUnauthorized = errors.New("authorization rejected")

// APIError is a non-2xx response from the backend. Message carries the
// server-supplied detail when one was parseable, otherwise a generic
// fallback for the operation.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap lets callers match 401s with errors.Is(err, ErrUnauthorized).
func (e *APIError) Unwrap() error {
	if e.Status == 401 {
		return ErrUnauthorized
	}
	return nil
}

func newAPIError(status int, message, fallback string) *APIError {
	if message == "" {
		message = fallback
	}
	return &APIError{Status: status, Message: message}
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: request failed: %w", op, err)
}
