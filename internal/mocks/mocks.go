// Package mocks provides testify mocks for the capability ports and the
// transport. Constructors register AssertExpectations on test cleanup.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/domain"
)

// TestingT is the subset of *testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockSessionStore mocks ports.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore creates a MockSessionStore.
func NewMockSessionStore(t TestingT) *MockSessionStore {
	m := &MockSessionStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Dispatch records the action.
func (m *MockSessionStore) Dispatch(action domain.Action) {
	m.Called(action)
}

// MockPersistedStorage mocks ports.PersistedStorage.
type MockPersistedStorage struct {
	mock.Mock
}

// NewMockPersistedStorage creates a MockPersistedStorage.
func NewMockPersistedStorage(t TestingT) *MockPersistedStorage {
	m := &MockPersistedStorage{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// RemoveKey records the key.
func (m *MockPersistedStorage) RemoveKey(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// MockNavigator mocks ports.Navigator.
type MockNavigator struct {
	mock.Mock
}

// NewMockNavigator creates a MockNavigator.
func NewMockNavigator(t TestingT) *MockNavigator {
	m := &MockNavigator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// ReplaceLocation records the path.
func (m *MockNavigator) ReplaceLocation(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

// MockTransport mocks the single-exchange transport.
type MockTransport struct {
	mock.Mock
}

// NewMockTransport creates a MockTransport.
func NewMockTransport(t TestingT) *MockTransport {
	m := &MockTransport{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Exchange records the request.
func (m *MockTransport) Exchange(ctx context.Context, req *clients.Request) (*clients.Response, error) {
	args := m.Called(ctx, req)

	var resp *clients.Response
	if v := args.Get(0); v != nil {
		resp = v.(*clients.Response)
	}

	return resp, args.Error(1)
}

// MockInvalidator mocks the session invalidator.
type MockInvalidator struct {
	mock.Mock
}

// NewMockInvalidator creates a MockInvalidator.
func NewMockInvalidator(t TestingT) *MockInvalidator {
	m := &MockInvalidator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Invalidate records the call.
func (m *MockInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
