package backend

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned after a 401 has purged the session and sent
// the user to the login surface. Callers show nothing further.
var ErrUnauthorized = errors.New("backend: unauthorized")

// TransportError is a request that never got a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a reply that arrived but reports failure, either through a
// non-2xx status or success=false.
type APIError struct {
	Status int
	// Message is the server-supplied text, possibly empty.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}
