/*
Package errs defines the error codes the server reports to clients.

Codes surface in WebSocket error frames and HTTP error bodies. Gameplay
feedback (unknown command, bad name) is plain text and does not use codes.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"
)

// 1xxx: transport and framing
const (
	// ErrInvalidFrame means an inbound WebSocket message was not valid JSON.
	ErrInvalidFrame = 1001

	// ErrUnsupportedFrame means the frame type is not one the server accepts.
	ErrUnsupportedFrame = 1002

	// ErrLineTooLong means an input line exceeded the configured maximum.
	ErrLineTooLong = 1003

	// ErrRateLimitExceeded means a client connected or sent commands too fast.
	ErrRateLimitExceeded = 1004
)

// 2xxx: server state
const (
	// ErrServerShutdown means the server is stopping and refuses new connections.
	ErrServerShutdown = 2001
)

// 5xxx: internal
const (
	// ErrUnknown is an unclassified server failure.
	ErrUnknown = 5000
)

// CustomError carries a client-facing code and message.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

func (e CustomError) Error() string {
	return fmt.Sprintf("error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

var errorMap = map[int]CustomError{
	ErrInvalidFrame:      {Code: ErrInvalidFrame, Message: "Invalid message format", Status: http.StatusBadRequest},
	ErrUnsupportedFrame:  {Code: ErrUnsupportedFrame, Message: "Unsupported message type", Status: http.StatusBadRequest},
	ErrLineTooLong:       {Code: ErrLineTooLong, Message: "Input line too long (max %d bytes)", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrServerShutdown:    {Code: ErrServerShutdown, Message: "The server is shutting down", Status: http.StatusServiceUnavailable},
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}

// NewError builds the error registered for code. details fill printf verbs in
// the message template; unknown codes map to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	tmpl, ok := errorMap[code]
	if !ok {
		tmpl = errorMap[ErrUnknown]
	}
	out := tmpl
	if len(details) > 0 && strings.Contains(out.Message, "%") {
		out.Message = fmt.Sprintf(out.Message, details...)
	}
	return &out
}
