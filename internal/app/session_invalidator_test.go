package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/go-api-client/internal/adapters/navigation"
	"github.com/jsamuelsen/go-api-client/internal/adapters/session"
	"github.com/jsamuelsen/go-api-client/internal/adapters/storage"
	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the invalidator to real in-memory collaborators.
type fixture struct {
	store   *session.Store
	storage *storage.Memory
	history *navigation.History
	inv     *SessionInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   session.NewStore(session.State{Status: domain.SessionLoggedIn, Subject: "u1"}, discardLogger()),
		storage: storage.NewMemory(),
		history: navigation.NewHistory("/", discardLogger()),
	}

	ctx := context.Background()
	require.NoError(t, f.storage.Set(ctx, "persist:root", []byte(`{"auth":{"token":"t"}}`)))
	require.NoError(t, f.storage.Set(ctx, "theme", []byte(`dark`)))
	require.NoError(t, f.history.Push(ctx, "/orders"))
	require.NoError(t, f.history.Push(ctx, "/orders/7"))

	inv, err := NewSessionInvalidator(f.store, f.storage, f.history, &SessionInvalidatorConfig{Logger: discardLogger()})
	require.NoError(t, err)
	f.inv = inv

	return f
}

func (f *fixture) assertInvalidated(t *testing.T) {
	t.Helper()

	ctx := context.Background()

	assert.False(t, f.store.State().LoggedIn())
	assert.Equal(t, uint64(1), f.store.State().Version, "exactly one logout transition")

	_, err := f.storage.Get(ctx, "persist:root")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	theme, err := f.storage.Get(ctx, "theme")
	require.NoError(t, err, "only the persisted state key is cleared")
	assert.Equal(t, "dark", string(theme))

	assert.Equal(t, "/", f.history.Current())
	assert.Equal(t, 3, f.history.Len(), "the current entry is replaced, not pushed")
}

func TestNewSessionInvalidator_RequiresCollaborators(t *testing.T) {
	_, err := NewSessionInvalidator(nil, storage.NewMemory(), navigation.NewHistory("/", nil), nil)
	assert.Error(t, err)
}

func TestNewSessionInvalidator_Defaults(t *testing.T) {
	inv, err := NewSessionInvalidator(
		session.NewStore(session.State{}, nil), storage.NewMemory(), navigation.NewHistory("/", nil), nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "persist:root", inv.persistKey)
	assert.Equal(t, "/", inv.rootPath)
}

func TestSessionInvalidator_Invalidate(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.inv.Invalidate(context.Background()))

	f.assertInvalidated(t)
}

func TestSessionInvalidator_SequentialCallsAreHarmless(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.inv.Invalidate(context.Background()))
	require.NoError(t, f.inv.Invalidate(context.Background()))

	f.assertInvalidated(t)
}

func TestSessionInvalidator_ConcurrentCalls(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for range 2 {
		wg.Go(func() {
			assert.NoError(t, f.inv.Invalidate(context.Background()))
		})
	}
	wg.Wait()

	f.assertInvalidated(t)
}

func TestSessionInvalidator_StepOrder(t *testing.T) {
	store := mocks.NewMockSessionStore(t)
	persisted := mocks.NewMockPersistedStorage(t)
	nav := mocks.NewMockNavigator(t)

	var order []InvalidationStep

	store.On("Dispatch", domain.LogoutAction()).
		Run(func(mock.Arguments) { order = append(order, StepDispatchLogout) }).Once()
	persisted.On("RemoveKey", mock.Anything, "persist:custom").
		Run(func(mock.Arguments) { order = append(order, StepRemovePersisted) }).Return(nil).Once()
	nav.On("ReplaceLocation", mock.Anything, "/signin").
		Run(func(mock.Arguments) { order = append(order, StepReplaceLocation) }).Return(nil).Once()

	inv, err := NewSessionInvalidator(store, persisted, nav, &SessionInvalidatorConfig{
		PersistKey: "persist:custom",
		RootPath:   "/signin",
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, inv.Invalidate(context.Background()))
	assert.Equal(t, []InvalidationStep{StepDispatchLogout, StepRemovePersisted, StepReplaceLocation}, order)
}

func TestSessionInvalidator_FailingStepDoesNotStopOthers(t *testing.T) {
	store := mocks.NewMockSessionStore(t)
	persisted := mocks.NewMockPersistedStorage(t)
	nav := mocks.NewMockNavigator(t)

	diskErr := errors.New("disk full")

	store.On("Dispatch", domain.LogoutAction()).Panic("store closed").Once()
	persisted.On("RemoveKey", mock.Anything, "persist:root").Return(diskErr).Once()
	nav.On("ReplaceLocation", mock.Anything, "/").Return(nil).Once()

	inv, err := NewSessionInvalidator(store, persisted, nav, &SessionInvalidatorConfig{Logger: discardLogger()})
	require.NoError(t, err)

	err = inv.Invalidate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, diskErr)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepDispatchLogout, stepErr.Step)
	assert.Contains(t, err.Error(), "store closed")
}

func TestSessionInvalidator_IgnoresCanceledContext(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.inv.Invalidate(ctx))

	f.assertInvalidated(t)
}
