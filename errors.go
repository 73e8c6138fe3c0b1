package swarmclient

import "fmt"

// SessionError indicates that a session could not be created or refreshed,
// or that the server kept rejecting the session even after a fresh one was
// obtained. It is fatal to the in-flight operation; callers should re-check
// credentials and server availability before trying again.
type SessionError struct {
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session error: %s: %v", e.Message, e.Err)
	}
	return "session error: " + e.Message
}

func (e *SessionError) Unwrap() error { return e.Err }

// APIError is a structured error returned by the server, either as an
// {error_id, error} envelope or as a failing HTTP status with no envelope.
type APIError struct {
	// ID is the server's machine-readable error identifier, if any.
	ID string
	// Message is the human-readable error text.
	Message string
	// Status is the HTTP status code of the response carrying the error.
	Status int
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("api error [%s]: %s", e.ID, e.Message)
	}
	return fmt.Sprintf("api error (http %d): %s", e.Status, e.Message)
}

// ProtocolError indicates that a response body could not be interpreted as
// the expected shape. This usually means a server/client version mismatch.
type ProtocolError struct {
	Endpoint string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s: %v", e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// StreamingError indicates that a streaming connection could not be
// established after exhausting retries, or that a receive failed in a way
// that is not a graceful or soft-stop condition.
type StreamingError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *StreamingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("streaming error on %s: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("streaming error on %s: %s", e.Endpoint, e.Message)
}

func (e *StreamingError) Unwrap() error { return e.Err }
