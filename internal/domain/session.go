package domain

// SessionState is the authentication state of the current user.
type SessionState int

const (
	// SessionLoggedOut means no authenticated user.
	SessionLoggedOut SessionState = iota

	// SessionLoggedIn means a user is authenticated.
	SessionLoggedIn
)

// String returns a human-readable name for the state.
func (s SessionState) String() string {
	switch s {
	case SessionLoggedOut:
		return "logged_out"
	case SessionLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// ActionType identifies a session state transition.
type ActionType string

const (
	// ActionLogin marks the user as authenticated.
	ActionLogin ActionType = "auth/login"

	// ActionLogout marks the user as signed out.
	ActionLogout ActionType = "auth/logout"
)

// Action is a state transition dispatched to a session store.
type Action struct {
	Type ActionType
	// Subject is the user the action concerns. Empty for logout.
	Subject string
}

// LoginAction returns the action that authenticates subject.
func LoginAction(subject string) Action {
	return Action{Type: ActionLogin, Subject: subject}
}

// LogoutAction returns the well-known log out action.
func LogoutAction() Action {
	return Action{Type: ActionLogout}
}
