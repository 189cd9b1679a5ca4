// Package errors defines the wire-level result codes shared by the
// dispatcher and the HTTP transport, and a small error type that carries a
// user-safe message separately from internal detail.
package errors

import "fmt"

// Result codes carried in the response envelope. They double as HTTP status
// codes on the transport.
const (
	OK             = 200
	BadRequest     = 400
	Forbidden      = 403
	NotFound       = 404
	InvalidRequest = 422
	InternalError  = 500
)

var texts = map[int]string{
	BadRequest:     "Bad Request",
	Forbidden:      "Forbidden",
	NotFound:       "Not Found",
	InvalidRequest: "Invalid Request",
	InternalError:  "Internal Server Error",
}

// Text returns the default message for a result code. Unknown codes map to a
// generic message so the envelope never leaks internals.
func Text(code int) string {
	if t, ok := texts[code]; ok {
		return t
	}
	return "Unknown Error"
}

// ServiceError pairs a result code with a user-safe message. The wrapped
// error holds internal detail and is only ever logged, never serialized.
type ServiceError struct {
	Code    int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// New creates a ServiceError with an explicit message. An empty message
// falls back to the default text for the code.
func New(code int, message string) *ServiceError {
	if message == "" {
		message = Text(code)
	}
	return &ServiceError{Code: code, Message: message}
}

// Internal wraps an unexpected error. The caller sees only the generic
// message.
func Internal(err error) *ServiceError {
	return &ServiceError{Code: InternalError, Message: Text(InternalError), Err: err}
}
