package client

import "fmt"

// The client folds every failure into one of four categories so callers can
// branch on error kind instead of inspecting transport details.

// ValidationError reports input rejected before any request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// HTTPError is a non-2xx response other than 401 and 403. Message carries
// the server's error body verbatim so it can be shown to a user.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure: the request never produced a
// response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError reports a rejected or under-privileged credential. On 401 the
// client's session has already been discarded; on 403 it is kept, since the
// token is valid but lacks the required role.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return e.Message
}
