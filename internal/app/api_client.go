// Package app composes the client adapter: it shapes outgoing requests,
// sends them through the transport and turns every failure into exactly one
// classified outcome.
//
// Application Layer Responsibilities:
//   - Rewrite request bodies to the wire naming convention
//   - Route failures through the classifier, centrally and once
//   - Invalidate the session when the server rejects it
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters/clients)
//   - Error shape inspection (that's adapters/clients/acl)
//   - Session, storage and navigation mechanics (those are ports)
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/adapters/clients/acl"
	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/platform/logging"
)

// DefaultMaxConcurrency bounds ExecuteAll when no limit is configured.
const DefaultMaxConcurrency = 8

// Transport performs a single exchange. *clients.Client satisfies it.
// Failures must be reported as *clients.Failure.
type Transport interface {
	Exchange(ctx context.Context, req *clients.Request) (*clients.Response, error)
}

// Invalidator ends the local session. *SessionInvalidator satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result is the outcome of one request in ExecuteAll.
type Result = PartialResult[*clients.Response]

// APIClientConfig holds optional configuration for the client.
type APIClientConfig struct {
	// MaxConcurrency bounds ExecuteAll. Defaults to DefaultMaxConcurrency.
	MaxConcurrency int

	Logger *slog.Logger
}

// APIClient is the composed client adapter. Each call is independent; the
// only cross-call effect is session invalidation.
//
// Errors returned by Execute are one of:
//   - *acl.ServerError: the server's response, untouched
//   - *domain.ClassifiedError: a category plus a localized message
//   - domain.ErrLoggedOut: the session was rejected and has been invalidated
//
// Example usage:
//
//	resp, err := client.Post(ctx, "/users", map[string]any{"userName": "a"})
//	switch {
//	case domain.IsLoggedOut(err):
//	    return // the user is being signed out
//	case err != nil:
//	    show(err)
//	}
type APIClient struct {
	transport      Transport
	classifier     *acl.Classifier
	invalidator    Invalidator
	maxConcurrency int
	logger         *slog.Logger
}

// NewAPIClient creates a client adapter. The adapter owns transport.
func NewAPIClient(
	transport Transport,
	classifier *acl.Classifier,
	invalidator Invalidator,
	cfg *APIClientConfig,
) (*APIClient, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}

	if invalidator == nil {
		return nil, errors.New("invalidator is required")
	}

	if classifier == nil {
		classifier = acl.NewClassifier(nil)
	}

	if cfg == nil {
		cfg = &APIClientConfig{}
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &APIClient{
		transport:      transport,
		classifier:     classifier,
		invalidator:    invalidator,
		maxConcurrency: maxConcurrency,
		logger:         logger.With(slog.String("component", "app.APIClient")),
	}, nil
}

// Execute sends req with its body keys rewritten to snake_case. req itself
// is not modified. A successful response is returned as the transport
// produced it.
func (c *APIClient) Execute(ctx context.Context, req *clients.Request) (*clients.Response, error) {
	logger := logging.FromContextOr(ctx, c.logger)

	if req == nil {
		return nil, c.classifier.ClassifyError(errors.New("request is required")).Err
	}

	resp, err := c.transport.Exchange(ctx, req.WithBody(acl.SnakeCaseKeys(req.Body)))
	if err == nil {
		return resp, nil
	}

	classification := c.classifier.ClassifyError(err)

	if classification.Kind == acl.KindSessionInvalid {
		logger.InfoContext(ctx, "session rejected by server",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
		)

		if invErr := c.invalidator.Invalidate(ctx); invErr != nil {
			logger.WarnContext(ctx, "session invalidation incomplete", slog.Any("error", invErr))
		}

		return nil, domain.ErrLoggedOut
	}

	logger.DebugContext(ctx, "request failed",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("classification", classification.Kind.String()),
		slog.Any("error", classification.Err),
	)

	return nil, classification.Err
}

// Get performs a GET request.
func (c *APIClient) Get(ctx context.Context, path string) (*clients.Response, error) {
	return c.Execute(ctx, clients.NewRequest(http.MethodGet, path, nil))
}

// Post performs a POST request with a JSON body.
func (c *APIClient) Post(ctx context.Context, path string, body map[string]any) (*clients.Response, error) {
	return c.Execute(ctx, clients.NewRequest(http.MethodPost, path, body))
}

// Put performs a PUT request with a JSON body.
func (c *APIClient) Put(ctx context.Context, path string, body map[string]any) (*clients.Response, error) {
	return c.Execute(ctx, clients.NewRequest(http.MethodPut, path, body))
}

// Patch performs a PATCH request with a JSON body.
func (c *APIClient) Patch(ctx context.Context, path string, body map[string]any) (*clients.Response, error) {
	return c.Execute(ctx, clients.NewRequest(http.MethodPatch, path, body))
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(ctx context.Context, path string) (*clients.Response, error) {
	return c.Execute(ctx, clients.NewRequest(http.MethodDelete, path, nil))
}

// ExecuteAll runs independent requests concurrently, bounded by the configured
// limit. Results are in input order and one failure does not affect the others.
// Session rejections from several requests invalidate the session once.
func (c *APIClient) ExecuteAll(ctx context.Context, reqs ...*clients.Request) []Result {
	fns := make([]func(context.Context) (*clients.Response, error), len(reqs))
	for i, req := range reqs {
		fns[i] = func(ctx context.Context) (*clients.Response, error) {
			return c.Execute(ctx, req)
		}
	}

	return ParallelPartialLimit(ctx, c.maxConcurrency, fns...)
}
