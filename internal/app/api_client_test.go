package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/adapters/clients/acl"
	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/mocks"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

const (
	msgInternet   = "You are offline."
	msgBadRequest = "No response from server."
	msgWrong      = "Something went wrong."
)

func testClassifier() *acl.Classifier {
	messages := map[string]string{
		"errors.internet":   msgInternet,
		"errors.badRequest": msgBadRequest,
		"errors.wrong":      msgWrong,
	}

	return acl.NewClassifier(ports.LocalizerFunc(func(key string) string { return messages[key] }))
}

func newTestAPIClient(t *testing.T, transport Transport, inv Invalidator) *APIClient {
	t.Helper()

	c, err := NewAPIClient(transport, testClassifier(), inv, &APIClientConfig{Logger: discardLogger()})
	require.NoError(t, err)

	return c
}

func respondedFailure(status int, body string) *clients.Failure {
	return &clients.Failure{
		Kind:     clients.FailureResponded,
		Response: &clients.Response{StatusCode: status, Body: []byte(body)},
	}
}

func TestNewAPIClient(t *testing.T) {
	tests := []struct {
		name      string
		transport Transport
		inv       Invalidator
		cfg       *APIClientConfig
		wantErr   bool
	}{
		{name: "all dependencies", transport: mocks.NewMockTransport(t), inv: mocks.NewMockInvalidator(t)},
		{name: "nil config uses defaults", transport: mocks.NewMockTransport(t), inv: mocks.NewMockInvalidator(t)},
		{name: "nil transport", inv: mocks.NewMockInvalidator(t), wantErr: true},
		{name: "nil invalidator", transport: mocks.NewMockTransport(t), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewAPIClient(tt.transport, nil, tt.inv, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, DefaultMaxConcurrency, c.maxConcurrency)
		})
	}
}

func TestAPIClient_TransformsBody(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	inv := mocks.NewMockInvalidator(t)

	want := &clients.Response{StatusCode: http.StatusCreated, Body: []byte(`{"id":1}`)}
	transport.On("Exchange", mock.Anything, mock.MatchedBy(func(r *clients.Request) bool {
		return assert.ObjectsAreEqual(map[string]any{"user_name": "a", "is_active": true}, r.Body)
	})).Return(want, nil).Once()

	client := newTestAPIClient(t, transport, inv)

	body := map[string]any{"userName": "a", "isActive": true}
	resp, err := client.Post(context.Background(), "/users", body)
	require.NoError(t, err)

	assert.Same(t, want, resp, "success responses are returned untouched")
	assert.Equal(t, map[string]any{"userName": "a", "isActive": true}, body, "caller body is not mutated")
}

func TestAPIClient_NilBodyStaysNil(t *testing.T) {
	transport := mocks.NewMockTransport(t)

	transport.On("Exchange", mock.Anything, mock.MatchedBy(func(r *clients.Request) bool {
		return r.Body == nil && r.Method == http.MethodGet && r.Path == "/me"
	})).Return(&clients.Response{StatusCode: http.StatusOK}, nil).Once()

	client := newTestAPIClient(t, transport, mocks.NewMockInvalidator(t))

	_, err := client.Get(context.Background(), "/me")
	require.NoError(t, err)
}

func TestAPIClient_Verbs(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	client := newTestAPIClient(t, transport, mocks.NewMockInvalidator(t))
	ctx := context.Background()

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		transport.On("Exchange", mock.Anything, mock.MatchedBy(func(r *clients.Request) bool {
			return r.Method == method
		})).Return(&clients.Response{StatusCode: http.StatusOK}, nil).Once()
	}

	_, err := client.Put(ctx, "/a", map[string]any{"x": 1})
	require.NoError(t, err)
	_, err = client.Patch(ctx, "/a", map[string]any{"x": 1})
	require.NoError(t, err)
	_, err = client.Delete(ctx, "/a")
	require.NoError(t, err)
}

func TestAPIClient_SessionInvalid(t *testing.T) {
	for _, errorType := range []string{"UNAUTHORIZED", "ACCESS_TOKEN_EXPIRED"} {
		t.Run(errorType, func(t *testing.T) {
			transport := mocks.NewMockTransport(t)
			inv := mocks.NewMockInvalidator(t)

			transport.On("Exchange", mock.Anything, mock.Anything).
				Return(nil, respondedFailure(http.StatusUnauthorized, `{"errorType":"`+errorType+`"}`)).Once()
			inv.On("Invalidate", mock.Anything).Return(nil).Once()

			client := newTestAPIClient(t, transport, inv)

			resp, err := client.Get(context.Background(), "/me")
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, domain.ErrLoggedOut)

			var se *acl.ServerError
			var ce *domain.ClassifiedError
			assert.False(t, errors.As(err, &se), "no server error reaches the caller")
			assert.False(t, errors.As(err, &ce), "no classified error reaches the caller")
		})
	}
}

func TestAPIClient_SessionInvalidWithFailingInvalidation(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	inv := mocks.NewMockInvalidator(t)

	transport.On("Exchange", mock.Anything, mock.Anything).
		Return(nil, respondedFailure(http.StatusUnauthorized, `{"errorType":"UNAUTHORIZED"}`)).Once()
	inv.On("Invalidate", mock.Anything).Return(errors.New("navigator gone")).Once()

	_, err := newTestAPIClient(t, transport, inv).Get(context.Background(), "/me")
	assert.ErrorIs(t, err, domain.ErrLoggedOut)
}

func TestAPIClient_Failures(t *testing.T) {
	tests := []struct {
		name         string
		failure      error
		wantCategory domain.Category
		wantMessage  string
	}{
		{
			name:         "no network",
			failure:      &clients.Failure{Kind: clients.FailureNoNetwork, Message: clients.NetworkErrorMessage},
			wantCategory: domain.CategoryInternetDisconnected,
			wantMessage:  msgInternet,
		},
		{
			name:         "no response",
			failure:      &clients.Failure{Kind: clients.FailureNoResponse, Message: "timeout"},
			wantCategory: domain.CategoryBadRequest,
			wantMessage:  msgBadRequest,
		},
		{
			name:         "malformed with message",
			failure:      &clients.Failure{Kind: clients.FailureMalformed, Message: "bad body"},
			wantCategory: domain.CategoryGeneric,
			wantMessage:  "bad body",
		},
		{
			name:         "malformed without message",
			failure:      &clients.Failure{Kind: clients.FailureMalformed},
			wantCategory: domain.CategoryGeneric,
			wantMessage:  msgWrong,
		},
		{
			name:         "foreign error",
			failure:      errors.New("transport exploded"),
			wantCategory: domain.CategoryGeneric,
			wantMessage:  "transport exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := mocks.NewMockTransport(t)
			transport.On("Exchange", mock.Anything, mock.Anything).Return(nil, tt.failure).Once()

			_, err := newTestAPIClient(t, transport, mocks.NewMockInvalidator(t)).Get(context.Background(), "/x")

			var ce *domain.ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.wantCategory, ce.Category)
			assert.Equal(t, tt.wantMessage, ce.Message)
		})
	}
}

func TestAPIClient_ServerErrorPassThrough(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	f := respondedFailure(http.StatusUnprocessableEntity, `{"errorType":"VALIDATION_FAILED","fields":["email"]}`)
	transport.On("Exchange", mock.Anything, mock.Anything).Return(nil, f).Once()

	_, err := newTestAPIClient(t, transport, mocks.NewMockInvalidator(t)).Post(context.Background(), "/users", nil)

	var se *acl.ServerError
	require.True(t, errors.As(err, &se))
	assert.Same(t, f.Response, se.Response)
	assert.JSONEq(t, `{"errorType":"VALIDATION_FAILED","fields":["email"]}`, string(se.Response.Body))
}

func TestAPIClient_NilRequest(t *testing.T) {
	_, err := newTestAPIClient(t, mocks.NewMockTransport(t), mocks.NewMockInvalidator(t)).Execute(context.Background(), nil)

	assert.Equal(t, domain.CategoryGeneric, domain.CategoryOf(err))
}

func TestAPIClient_ExecuteAll(t *testing.T) {
	transport := mocks.NewMockTransport(t)
	inv := mocks.NewMockInvalidator(t)

	ok := &clients.Response{StatusCode: http.StatusOK}

	transport.On("Exchange", mock.Anything, mock.MatchedBy(func(r *clients.Request) bool { return r.Path == "/ok" })).
		Return(ok, nil).Once()
	transport.On("Exchange", mock.Anything, mock.MatchedBy(func(r *clients.Request) bool { return r.Path == "/down" })).
		Return(nil, &clients.Failure{Kind: clients.FailureNoNetwork}).Once()
	transport.On("Exchange", mock.Anything, mock.MatchedBy(func(r *clients.Request) bool { return r.Path == "/me" })).
		Return(nil, respondedFailure(http.StatusUnauthorized, `{"errorType":"ACCESS_TOKEN_EXPIRED"}`)).Once()
	inv.On("Invalidate", mock.Anything).Return(nil).Once()

	client := newTestAPIClient(t, transport, inv)

	results := client.ExecuteAll(context.Background(),
		clients.NewRequest(http.MethodGet, "/ok", nil),
		clients.NewRequest(http.MethodGet, "/down", nil),
		clients.NewRequest(http.MethodGet, "/me", nil),
	)

	require.Len(t, results, 3)
	assert.Same(t, ok, results[0].Value)
	assert.NoError(t, results[0].Err)
	assert.True(t, domain.IsInternetDisconnected(results[1].Err))
	assert.ErrorIs(t, results[2].Err, domain.ErrLoggedOut)
}

func TestParallelPartialLimit_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})

	fns := make([]func(context.Context) (int, error), 6)
	for i := range fns {
		fns[i] = func(context.Context) (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)

			return i, nil
		}
	}

	done := make(chan []PartialResult[int])
	go func() { done <- ParallelPartialLimit(context.Background(), 2, fns...) }()

	close(release)
	results := <-done

	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, i, r.Value)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
