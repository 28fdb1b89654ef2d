package acl

import (
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/domain"
)

// errorTypeField is the body field the server uses to name the error.
const errorTypeField = "errorType"

// ServerError passes a non-2xx response through to the caller unchanged.
// Response is the exact pointer the transport produced.
type ServerError struct {
	Response  *clients.Response
	ErrorType string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Response == nil {
		return "server error"
	}

	if e.ErrorType != "" {
		return fmt.Sprintf("server error: status %d (%s)", e.Response.StatusCode, e.ErrorType)
	}

	return fmt.Sprintf("server error: status %d", e.Response.StatusCode)
}

// Unwrap returns domain.ErrServer for errors.Is() support.
func (e *ServerError) Unwrap() error {
	return domain.ErrServer
}

// StatusCode returns the response status, or 0 without a response.
func (e *ServerError) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Message returns the server's own message when the body carries one.
// It supports both nested format (error.message) and flat format (message).
func (e *ServerError) Message() string {
	if e.Response == nil {
		return ""
	}

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Response.Body, &payload); err != nil {
		return ""
	}

	if payload.Error.Message != "" {
		return payload.Error.Message
	}

	return payload.Message
}

// parseErrorType extracts the errorType field from a response body.
// Non-JSON bodies, non-object bodies and non-string values yield "".
func parseErrorType(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	raw, ok := fields[errorTypeField]
	if !ok {
		return ""
	}

	var errorType string
	if err := json.Unmarshal(raw, &errorType); err != nil {
		return ""
	}

	return errorType
}
