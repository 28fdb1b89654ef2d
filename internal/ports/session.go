// Package ports defines the capabilities the client adapter consumes.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than process-wide singletons.
//
// Port Design Principles:
//   - Context as first parameter for anything that may touch I/O
//   - Keep interfaces to the single capability the core needs
//   - Implementations must tolerate repeated and concurrent calls
package ports

import (
	"context"

	"github.com/jsamuelsen/go-api-client/internal/domain"
)

// SessionStore receives session state transitions.
// The core only writes to it; it never reads the session.
type SessionStore interface {
	// Dispatch applies an action. Dispatching logout twice is harmless.
	Dispatch(action domain.Action)
}

// PersistedStorage is the store used to rehydrate client state on reload.
type PersistedStorage interface {
	// RemoveKey deletes the value under key.
	// Does not return an error if the key does not exist.
	RemoveKey(ctx context.Context, key string) error
}

// Navigator controls the user-facing location.
type Navigator interface {
	// ReplaceLocation moves to path, discarding the current entry.
	// Replacing with the current location is a no-op in effect.
	ReplaceLocation(ctx context.Context, path string) error
}

// Message keys every Localizer must resolve.
const (
	KeyInternetDisconnected = "errors.internet"
	KeyBadRequest           = "errors.badRequest"
	KeyWrong                = "errors.wrong"

	// KeyLoggedOut is shown when the server ended the session.
	KeyLoggedOut = "session.loggedOut"
)

// Localizer resolves message keys to display strings.
type Localizer interface {
	// Lookup returns the localized string for key.
	// Unknown keys resolve to the key itself.
	Lookup(key string) string
}

// LocalizerFunc adapts a plain function to Localizer.
type LocalizerFunc func(key string) string

// Lookup calls f(key).
func (f LocalizerFunc) Lookup(key string) string {
	return f(key)
}
