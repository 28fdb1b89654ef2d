// Package session provides an in-memory session store driven by dispatched
// actions.
package session

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/jsamuelsen/go-api-client/internal/domain"
)

// State is a snapshot of the session.
type State struct {
	Status  domain.SessionState
	Subject string
	// Version increments on every transition that changes the state.
	Version uint64
}

// LoggedIn reports whether a user is authenticated.
func (s State) LoggedIn() bool {
	return s.Status == domain.SessionLoggedIn
}

// Listener observes state transitions.
type Listener func(prev, next State)

// Reduce returns the state that results from applying action to s.
// Unknown actions and transitions to the current state leave s unchanged.
func Reduce(s State, action domain.Action) State {
	next := s

	switch action.Type {
	case domain.ActionLogin:
		next.Status = domain.SessionLoggedIn
		next.Subject = action.Subject
	case domain.ActionLogout:
		next.Status = domain.SessionLoggedOut
		next.Subject = ""
	default:
		return s
	}

	if next.Status == s.Status && next.Subject == s.Subject {
		return s
	}

	next.Version++

	return next
}

// Store holds the current session and notifies listeners on change.
// Safe for concurrent use. Listeners run outside the lock, in subscription
// order, and always see transitions in the order they were applied: one
// dispatcher at a time drains the pending notifications, and a Dispatch made
// while another is draining (including from inside a listener) is queued
// behind it.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []subscription
	nextID    int
	pending   []notification
	draining  bool
	logger    *slog.Logger
}

type subscription struct {
	id int
	fn Listener
}

type notification struct {
	prev, next State
	listeners  []subscription
}

// NewStore creates a store starting at initial.
func NewStore(initial State, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		state:  initial,
		logger: logger.With(slog.String("component", "session.Store")),
	}
}

// Dispatch applies action. Listeners are only notified when the state changed.
func (s *Store) Dispatch(action domain.Action) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, action)

	if next == prev {
		s.mu.Unlock()
		s.logger.Debug("action did not change session", slog.String("action", string(action.Type)))

		return
	}

	s.state = next
	s.pending = append(s.pending, notification{
		prev:      prev,
		next:      next,
		listeners: slices.Clone(s.listeners),
	})

	queued := s.draining
	s.draining = true
	s.mu.Unlock()

	s.logger.Info("session changed",
		slog.String("action", string(action.Type)),
		slog.String("status", next.Status.String()),
		slog.Uint64("version", next.Version),
	)

	if !queued {
		s.drain()
	}
}

func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()

			return
		}

		n := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, l := range n.listeners {
			l.fn(n.prev, n.next)
		}
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
