// Package domain contains the client-side error taxonomy and session types.
// Domain errors describe what the caller can act on, NOT transport failures.
// They are infrastructure-agnostic; the clients/acl layer produces them from
// transport outcomes.
package domain

import (
	"errors"
	"fmt"
)

// Category identifies a classified failure. Values are stable and may be
// shown to or matched by callers.
type Category string

// Error categories. ACCESS_TOKEN_EXPIRED and UNAUTHORIZED double as the
// server-side errorType values that trigger session invalidation.
const (
	CategoryAccessTokenExpired   Category = "ACCESS_TOKEN_EXPIRED"
	CategoryUnauthorized         Category = "UNAUTHORIZED"
	CategoryInternetDisconnected Category = "ERR_INTERNET_DISCONNECTED"
	CategoryBadRequest           Category = "BAD_REQUEST"
	CategoryGeneric              Category = "WRONG"
	CategoryServerError          Category = "SERVER_ERROR"
)

// String returns the category identifier.
func (c Category) String() string {
	return string(c)
}

// InvalidatesSession reports whether a server error of this type ends the session.
func (c Category) InvalidatesSession() bool {
	return c == CategoryAccessTokenExpired || c == CategoryUnauthorized
}

// Sentinel errors for use with errors.Is().
var (
	// ErrInternetDisconnected indicates no connection to the server could be made.
	ErrInternetDisconnected = errors.New("internet disconnected")

	// ErrBadRequest indicates the request was sent but no response arrived.
	ErrBadRequest = errors.New("bad request")

	// ErrGeneric indicates a failure that fits no other category.
	ErrGeneric = errors.New("something went wrong")

	// ErrServer indicates the server answered with an error payload.
	ErrServer = errors.New("server error")

	// ErrLoggedOut is returned instead of a result when the server rejected
	// the session. The session has already been invalidated when a caller
	// sees it; it is a control-flow signal, not a displayable error.
	ErrLoggedOut = errors.New("session invalidated")
)

// ClassifiedError is a failure with a category and a localized message
// suitable for direct display.
type ClassifiedError struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}

	return string(e.Category)
}

// Unwrap returns the category sentinel for errors.Is() support.
func (e *ClassifiedError) Unwrap() error {
	switch e.Category {
	case CategoryInternetDisconnected:
		return ErrInternetDisconnected
	case CategoryBadRequest:
		return ErrBadRequest
	case CategoryServerError:
		return ErrServer
	default:
		return ErrGeneric
	}
}

// NewInternetDisconnectedError creates an ERR_INTERNET_DISCONNECTED error.
func NewInternetDisconnectedError(message string, cause error) error {
	return &ClassifiedError{Category: CategoryInternetDisconnected, Message: message, Cause: cause}
}

// NewBadRequestError creates a BAD_REQUEST error.
func NewBadRequestError(message string, cause error) error {
	return &ClassifiedError{Category: CategoryBadRequest, Message: message, Cause: cause}
}

// NewGenericError creates a WRONG error.
func NewGenericError(message string, cause error) error {
	return &ClassifiedError{Category: CategoryGeneric, Message: message, Cause: cause}
}

// CategoryOf returns the category of a classified error, or "" when err
// carries none.
func CategoryOf(err error) Category {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}

	return ""
}

// IsLoggedOut checks if an error signals an invalidated session.
func IsLoggedOut(err error) bool {
	return errors.Is(err, ErrLoggedOut)
}

// IsInternetDisconnected checks if an error is an internet disconnected error.
func IsInternetDisconnected(err error) bool {
	return errors.Is(err, ErrInternetDisconnected)
}

// IsBadRequest checks if an error is a bad request error.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsGeneric checks if an error is a generic error.
func IsGeneric(err error) bool {
	return errors.Is(err, ErrGeneric)
}
