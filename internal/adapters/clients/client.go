package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/go-api-client/internal/adapters/http/middleware"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/platform/logging"
)

const (
	// instrumentationName is used for OpenTelemetry tracer and meter.
	instrumentationName = "github.com/jsamuelsen/go-api-client/internal/adapters/clients"

	// httpStatusCategoryDivisor divides status code to get category (2xx, 4xx, 5xx).
	httpStatusCategoryDivisor = 100

	// defaultTimeout is the default request timeout if not configured.
	defaultTimeout = config.DefaultClientTimeout
)

// Doer executes a single HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures an HTTP client instance.
type Config struct {
	// BaseURL is the base URL for all requests (e.g., "https://api.example.com").
	BaseURL string

	// ServiceName identifies the upstream API for logging and tracing.
	ServiceName string

	// Timeout is the per-request deadline.
	Timeout time.Duration

	// Transport configures the connection pool. Zero values use the defaults.
	Transport config.TransportConfig

	// AuthFunc is an optional function to inject authentication into requests.
	AuthFunc func(*http.Request)

	// HTTPClient overrides the underlying client. Timeout and Transport are
	// ignored when it is set.
	HTTPClient Doer

	// Logger is an optional logger. If nil, a default logger is used.
	Logger *slog.Logger
}

// Client performs single exchanges against the upstream API and reports
// every failure as a *Failure. It never retries.
// It provides:
//   - OpenTelemetry tracing and metrics
//   - Request/correlation ID propagation
//   - Structured logging
type Client struct {
	http        Doer
	baseURL     string
	serviceName string
	cfg         *Config
	logger      *slog.Logger

	tracer trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a new instrumented HTTP client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg.Transport),
		}
	}

	return &Client{
		http:            httpClient,
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		cfg:             cfg,
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// newTransport builds the pooled transport, filling zero values with defaults.
func newTransport(tc config.TransportConfig) *http.Transport {
	if tc.MaxIdleConns <= 0 {
		tc.MaxIdleConns = config.DefaultTransportMaxIdleConns
	}
	if tc.MaxIdleConnsPerHost <= 0 {
		tc.MaxIdleConnsPerHost = config.DefaultTransportMaxIdleConnsPerHost
	}
	if tc.IdleConnTimeout <= 0 {
		tc.IdleConnTimeout = config.DefaultTransportIdleConnTimeout
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = tc.MaxIdleConns
	t.MaxIdleConnsPerHost = tc.MaxIdleConnsPerHost
	t.IdleConnTimeout = tc.IdleConnTimeout

	return t
}

// ServiceName returns the upstream name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Exchange performs one request. A 2xx response is returned as is; any other
// outcome is returned as a *Failure.
func (c *Client) Exchange(ctx context.Context, r *Request) (*Response, error) {
	startTime := time.Now()
	method := r.method()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", method),
		slog.String("path", r.Path),
	)

	req, err := c.buildRequest(ctx, r)
	if err != nil {
		f := malformedFailure(err)
		c.recordMetrics(ctx, method, 0, time.Since(startTime), f.Kind.String())
		logger.Warn("request could not be built", slog.Any("error", err))
		return nil, f
	}

	c.injectHeaders(ctx, req)

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	logger.Log(ctx, logging.LevelTrace, "sending request",
		slog.String("request_id", req.Header.Get(middleware.HeaderRequestID)),
		slog.Any("body", r.Body),
	)

	resp, err := c.roundTrip(req.WithContext(ctx))

	return c.recordResult(ctx, method, resp, err, span, logger, startTime)
}

// roundTrip executes req and reads the full body.
func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// recordResult turns the round trip result into the exchange outcome and
// records span status, metrics and logs.
func (c *Client) recordResult(
	ctx context.Context,
	method string,
	resp *Response,
	err error,
	span trace.Span,
	logger *slog.Logger,
	startTime time.Time,
) (*Response, error) {
	duration := time.Since(startTime)

	if err != nil {
		f := transportFailure(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, f.Kind.String())
		c.recordMetrics(ctx, method, 0, duration, f.Kind.String())
		logger.Warn("request failed",
			slog.String("failure", f.Kind.String()),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return nil, f
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	statusCategory := fmt.Sprintf("%dxx", resp.StatusCode/httpStatusCategoryDivisor)
	c.recordMetrics(ctx, method, resp.StatusCode, duration, statusCategory)

	if !resp.OK() {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		logger.Info("request rejected",
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", duration),
		)
		return nil, respondedFailure(resp)
	}

	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// buildRequest encodes the body and assembles the *http.Request.
func (c *Client) buildRequest(ctx context.Context, r *Request) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method(), c.buildURL(r), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// injectHeaders adds request ID, correlation ID, and auth to the request.
// A request ID is generated when the context carries none.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if req.Header.Get(middleware.HeaderRequestID) == "" {
		requestID := logging.RequestID(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := logging.CorrelationID(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

// buildURL constructs the full URL from base URL, path and query.
func (c *Client) buildURL(r *Request) string {
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := c.baseURL + path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	return u
}

// recordMetrics records request metrics.
func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
