package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAlreadyRunning is returned when a connection is requested while one is live.
	ErrAlreadyRunning = errors.New("discord connection already running")

	// ErrMissingCredential is returned when no credential source yields a token.
	ErrMissingCredential = errors.New("discord bot token is required")

	// ErrInvalidCredential is returned when an empty token reaches the connection manager.
	ErrInvalidCredential = errors.New("discord bot token is empty")

	// ErrNotConnected marks an action attempted while no connection is live.
	ErrNotConnected = errors.New("discord bot not connected")

	// ErrRemoteRejected marks a failure reported by the Discord API.
	ErrRemoteRejected = errors.New("discord rejected the request")

	// ErrConfigParse marks a malformed plugin settings payload.
	ErrConfigParse = errors.New("malformed plugin settings")
)

// RemoteError is a failure reported by the remote service for one operation.
// Status is the HTTP status code when one is known, zero otherwise.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrRemoteRejected and the underlying client error.
func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteRejected, e.Err}
}

// Unauthorized reports whether the failure points at the credential rather
// than at the network: HTTP 401/403, or an error text saying so when the
// client did not expose a status.
func (e *RemoteError) Unauthorized() bool {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case 0:
	default:
		return false
	}
	if e.Err == nil {
		return false
	}
	msg := strings.ToLower(e.Err.Error())
	for _, marker := range []string{"401", "403", "unauthorized", "forbidden"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsUnauthorized reports whether err wraps a RemoteError caused by the credential.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Unauthorized()
	}
	return false
}
