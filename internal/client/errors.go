package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by calls that need a signed-in session.
	ErrNoSession = errors.New("not logged in")
	// ErrNoRefreshToken is returned by Refresh when the session cannot be renewed.
	ErrNoRefreshToken = errors.New("session has no refresh token")
	ErrEmptyID        = errors.New("resource id is required")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}
