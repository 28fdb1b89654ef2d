package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/go-api-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-api-client/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-api-client/internal/adapters/http/middleware"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sandboxConfig() *config.SandboxConfig {
	return &config.SandboxConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxRequestSize: 64,
		RequestTimeout: time.Second,
		Tokens:         []string{"good=u1"},
		ExpiredTokens:  []string{"stale"},
	}
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()

	engine := gin.New()
	SetupRouter(engine, NewRouterConfig(
		sandboxConfig(), "sandbox", ports.NewHealthRegistry(0), handlers.BuildInfo{Version: "test"}, discardLogger(),
	))

	return engine
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"::1", 9000, "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			srv := NewServer(&config.SandboxConfig{Host: tt.host, Port: tt.port}, discardLogger())
			assert.Equal(t, tt.want, srv.Addr())
			assert.NotNil(t, srv.Engine())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := NewServer(sandboxConfig(), discardLogger())
	SetupRouter(srv.Engine(), NewRouterConfig(
		sandboxConfig(), "sandbox", ports.NewHealthRegistry(0), handlers.BuildInfo{}, discardLogger(),
	))

	errCh, err := srv.Start()
	require.NoError(t, err)
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr(), "Addr reports the bound port")

	resp, err := http.Get("http://" + srv.Addr() + "/-/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case _, ok := <-errCh:
		assert.False(t, ok, "error channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to shutdown")
	}
}

func TestServerStart_BindError(t *testing.T) {
	first := NewServer(sandboxConfig(), discardLogger())
	_, err := first.Start()
	require.NoError(t, err)

	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	host, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)

	cfg := sandboxConfig()
	cfg.Host = host
	cfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	_, err = NewServer(cfg, discardLogger()).Start()
	assert.Error(t, err)
}

func TestSetupRouter_Routes(t *testing.T) {
	engine := newEngine(t)

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/build",
		"GET /-/metrics",
		"POST /api/v1/echo",
		"PUT /api/v1/echo",
		"PATCH /api/v1/echo",
		"GET /api/v1/me",
		"POST /api/v1/session/expire",
		"POST /api/v1/users",
		"GET /api/v1/slow",
		"GET /api/v1/fail/:status",
	} {
		assert.True(t, routes[want], "missing route: %s", want)
	}
}

func TestSetupRouter_NotFound(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorTypeNotFound, resp.ErrorType)
}

func TestSetupRouter_PropagatesIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderRequestID, "req-9")
	req.Header.Set(middleware.HeaderCorrelationID, "corr-9")

	w := httptest.NewRecorder()
	newEngine(t).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-9", w.Header().Get(middleware.HeaderRequestID))

	var resp dto.EchoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "corr-9", resp.CorrelationID)
}

func TestSetupRouter_BodyLimit(t *testing.T) {
	body := `{"user_name":"` + strings.Repeat("x", 100) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	newEngine(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetupRouter_RequestTimeout(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/slow?delay=30s", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
