package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/platform/logging"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

// InvalidationStep names one step of session invalidation.
type InvalidationStep string

// Invalidation steps, in execution order.
const (
	StepDispatchLogout  InvalidationStep = "dispatch_logout"
	StepRemovePersisted InvalidationStep = "remove_persisted"
	StepReplaceLocation InvalidationStep = "replace_location"
)

// StepError wraps a failure with the invalidation step where it occurred.
type StepError struct {
	Step  InvalidationStep
	Cause error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// SessionInvalidatorConfig holds optional configuration for the invalidator.
type SessionInvalidatorConfig struct {
	// PersistKey is the persisted-state key to clear. Defaults to "persist:root".
	PersistKey string

	// RootPath is the unauthenticated entry point. Defaults to "/".
	RootPath string

	Logger *slog.Logger
}

// SessionInvalidator signs the user out: it dispatches logout to the session
// store, removes the persisted state key, then replaces the location with the
// root path.
//
// Every step is attempted even when an earlier one fails. Concurrent calls
// share a single run; later calls start a new run, which is harmless since
// each step is idempotent.
type SessionInvalidator struct {
	store      ports.SessionStore
	storage    ports.PersistedStorage
	navigator  ports.Navigator
	persistKey string
	rootPath   string
	logger     *slog.Logger

	group singleflight.Group
}

// NewSessionInvalidator creates an invalidator over the given capabilities.
func NewSessionInvalidator(
	store ports.SessionStore,
	storage ports.PersistedStorage,
	navigator ports.Navigator,
	cfg *SessionInvalidatorConfig,
) (*SessionInvalidator, error) {
	if store == nil || storage == nil || navigator == nil {
		return nil, errors.New("session store, persisted storage and navigator are required")
	}

	if cfg == nil {
		cfg = &SessionInvalidatorConfig{}
	}

	persistKey := cfg.PersistKey
	if persistKey == "" {
		persistKey = config.DefaultPersistKey
	}

	rootPath := cfg.RootPath
	if rootPath == "" {
		rootPath = config.DefaultRootPath
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionInvalidator{
		store:      store,
		storage:    storage,
		navigator:  navigator,
		persistKey: persistKey,
		rootPath:   rootPath,
		logger:     logger.With(slog.String("component", "app.SessionInvalidator")),
	}, nil
}

// Invalidate runs the invalidation sequence. The returned error joins every
// failed step and is informational; the session is treated as invalidated
// regardless.
//
// The run is detached from ctx cancellation so a torn-down request cannot
// leave the sequence half done.
func (s *SessionInvalidator) Invalidate(ctx context.Context) error {
	runCtx := context.WithoutCancel(ctx)

	_, err, shared := s.group.Do(s.persistKey, func() (any, error) {
		return nil, s.run(runCtx)
	})

	if shared {
		s.loggerFrom(ctx).DebugContext(ctx, "joined in-flight invalidation")
	}

	return err
}

func (s *SessionInvalidator) run(ctx context.Context) error {
	logger := s.loggerFrom(ctx)
	logger.InfoContext(ctx, "invalidating session",
		slog.String("persist_key", s.persistKey),
		slog.String("root_path", s.rootPath),
	)

	var errs []error

	if err := s.dispatchLogout(); err != nil {
		errs = append(errs, &StepError{Step: StepDispatchLogout, Cause: err})
	}

	if err := s.storage.RemoveKey(ctx, s.persistKey); err != nil {
		errs = append(errs, &StepError{Step: StepRemovePersisted, Cause: err})
	}

	if err := s.navigator.ReplaceLocation(ctx, s.rootPath); err != nil {
		errs = append(errs, &StepError{Step: StepReplaceLocation, Cause: err})
	}

	for _, err := range errs {
		logger.WarnContext(ctx, "invalidation step failed", slog.Any("error", err))
	}

	return errors.Join(errs...)
}

// dispatchLogout sends the logout action, turning a panicking store into an
// error so the remaining steps still run.
func (s *SessionInvalidator) dispatchLogout() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch panicked: %v", r)
		}
	}()

	s.store.Dispatch(domain.LogoutAction())

	return nil
}

func (s *SessionInvalidator) loggerFrom(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}
