package history

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no history-service base URL is set.
var ErrNotConfigured = errors.New("history service base URL is not configured")

// UpstreamError carries a non-2xx, non-404 response from the history
// service. The original status and body are preserved for diagnosis.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("history service status %d: %s", e.Status, e.Body)
}

// ConnectError marks a transport-level failure reaching the history
// service, distinct from the service answering with an error.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to history service: %v", e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
