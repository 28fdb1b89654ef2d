package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/jsamuelsen/go-api-client/internal/adapters/http"
	"github.com/jsamuelsen/go-api-client/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-api-client/internal/adapters/storage"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

const loggedOutMessage = "Your session has expired. Please sign in again."

func init() {
	gin.SetMode(gin.TestMode)
}

// sandbox starts an in-process upstream and returns its URL.
func sandbox(t *testing.T) string {
	t.Helper()

	cfg := &config.SandboxConfig{
		MaxRequestSize: config.DefaultMaxRequestSize,
		RequestTimeout: 2 * time.Second,
		Tokens:         []string{"dev-token=demo"},
		ExpiredTokens:  []string{"expired-token"},
	}

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.NewRouterConfig(
		cfg, "sandbox", ports.NewHealthRegistry(0), handlers.BuildInfo{Version: "test"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	))

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return srv.URL
}

// closedURL returns a URL nothing listens on.
func closedURL(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return "http://" + addr
}

type cli struct {
	t       *testing.T
	baseURL string
	dbPath  string
}

func newCLI(t *testing.T, baseURL string) *cli {
	t.Helper()
	t.Setenv("APP_ENVIRONMENT", "")

	return &cli{t: t, baseURL: baseURL, dbPath: filepath.Join(t.TempDir(), "state.db")}
}

func (c *cli) run(args ...string) (code int, stdout, stderr string) {
	c.t.Helper()

	var out, errOut bytes.Buffer

	flags := []string{"-base-url", c.baseURL, "-storage", c.dbPath, "-log-level", "error", "-locale", "en"}
	code = run(context.Background(), append(flags, args...), &out, &errOut)

	return code, out.String(), errOut.String()
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, exitError, run(context.Background(), nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "usage: apictl")

	assert.Equal(t, exitError, run(context.Background(), []string{"-H", "no-colon"}, &out, &errOut))
}

func TestRun_RequestBodyIsSnakeCased(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, stdout, stderr := c.run("post", "/api/v1/echo", `{"userName":"a","isActive":true}`)
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, stdout, `"user_name": "a"`)
	assert.Contains(t, stdout, `"is_active": true`)
	assert.NotContains(t, stdout, "userName")
	assert.Contains(t, stdout, `"correlationId"`, "each run sends a correlation ID")
}

func TestRun_RejectsNonObjectBody(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, _, stderr := c.run("POST", "/api/v1/echo", `[1,2]`)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "JSON object")
}

func TestRun_LoginThenAuthorizedRequest(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, stdout, _ := c.run("login", "dev-token", "demo")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "logged in")

	code, stdout, stderr := c.run("GET", "/api/v1/me")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, `"subject": "demo"`)
}

func TestRun_ExpiredTokenSignsOut(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, _, _ := c.run("login", "expired-token")
	require.Equal(t, exitOK, code)

	code, stdout, stderr := c.run("GET", "/api/v1/me")
	assert.Equal(t, exitLoggedOut, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, loggedOutMessage)

	db, err := storage.OpenSQLite(context.Background(), c.dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get(context.Background(), config.DefaultPersistKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "persisted session is removed")
}

func TestRun_MissingTokenSignsOut(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, _, stderr := c.run("GET", "/api/v1/me")
	assert.Equal(t, exitLoggedOut, code)
	assert.Contains(t, stderr, loggedOutMessage)
}

func TestRun_ServerErrorPassesThrough(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, _, stderr := c.run("POST", "/api/v1/users", `{"userName":""}`)
	assert.Equal(t, exitRequestFailed, code)
	assert.Contains(t, stderr, "status 422")
	assert.Contains(t, stderr, "VALIDATION_FAILED")
	assert.Contains(t, stderr, "request validation failed")
}

func TestRun_NoNetwork(t *testing.T) {
	c := newCLI(t, closedURL(t))

	code, _, stderr := c.run("GET", "/api/v1/me")
	assert.Equal(t, exitRequestFailed, code)
	assert.Contains(t, stderr, "No internet connection")
}

func TestRun_QueryIsForwarded(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, _, stderr := c.run("GET", "/api/v1/fail/503?errorType=MAINTENANCE")
	assert.Equal(t, exitRequestFailed, code)
	assert.Contains(t, stderr, "status 503 (MAINTENANCE)")
}

func TestRun_Logout(t *testing.T) {
	c := newCLI(t, sandbox(t))

	code, _, _ := c.run("login", "dev-token")
	require.Equal(t, exitOK, code)

	code, stdout, _ := c.run("logout")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, loggedOutMessage)

	code, _, _ = c.run("GET", "/api/v1/me")
	assert.Equal(t, exitLoggedOut, code, "no credentials survive logout")
}

func TestRun_Health(t *testing.T) {
	code, stdout, _ := newCLI(t, sandbox(t)).run("health")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, `"upstream"`)
	assert.Contains(t, stdout, `"storage"`)

	code, stdout, _ = newCLI(t, closedURL(t)).run("health")
	assert.Equal(t, exitRequestFailed, code)
	assert.Contains(t, stdout, `"unhealthy"`)
}

func TestWriteBody(t *testing.T) {
	var buf bytes.Buffer

	writeBody(&buf, []byte(`{"a":1}`))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())

	buf.Reset()
	writeBody(&buf, []byte("plain"))
	assert.Equal(t, "plain\n", buf.String())

	buf.Reset()
	writeBody(&buf, nil)
	assert.Empty(t, buf.String())
}
