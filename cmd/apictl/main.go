// Package main is apictl, a command line client that sends requests through
// the API client adapter and prints either the payload or a localized error.
//
// Usage:
//
//	apictl [flags] METHOD PATH [JSON_BODY]
//	apictl [flags] login TOKEN [SUBJECT]
//	apictl [flags] logout
//	apictl [flags] health
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/adapters/clients/acl"
	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/platform/i18n"
	"github.com/jsamuelsen/go-api-client/internal/platform/logging"
	"github.com/jsamuelsen/go-api-client/internal/platform/telemetry"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

// Build-time variables, injected via ldflags.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"
)

// Exit codes.
const (
	exitOK            = 0
	exitError         = 1
	exitRequestFailed = 2
	exitLoggedOut     = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

// options are the command line overrides applied on top of the loaded config.
type options struct {
	profile  string
	baseURL  string
	locale   string
	storage  string
	logLevel string
	headers  headerFlags
}

// headerFlags collects repeatable -H "Key: Value" flags.
type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ", ") }

func (h *headerFlags) Set(v string) error {
	if !strings.Contains(v, ":") {
		return fmt.Errorf("header %q must look like Key: Value", v)
	}

	*h = append(*h, v)

	return nil
}

func (h headerFlags) header() http.Header {
	out := make(http.Header, len(h))
	for _, kv := range h {
		k, v, _ := strings.Cut(kv, ":")
		out.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}

	return out
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options

	fs := flag.NewFlagSet("apictl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.profile, "profile", os.Getenv("APP_ENVIRONMENT"), "config profile (configs/<profile>.yaml)")
	fs.StringVar(&opts.baseURL, "base-url", "", "override client.base_url")
	fs.StringVar(&opts.locale, "locale", "", "override i18n.locale")
	fs.StringVar(&opts.storage, "storage", "", "override session.storage_path")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log.level")
	fs.Var(&opts.headers, "H", "extra request header, repeatable")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: apictl [flags] METHOD PATH [JSON_BODY] | login TOKEN [SUBJECT] | logout | health")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitError
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	// Every exchange of this run shares one correlation ID.
	ctx = logging.WithCorrelationID(logging.WithContext(ctx, logger), uuid.NewString())

	logger.Debug("apictl starting",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("base_url", cfg.Client.BaseURL),
	)

	tel, err := telemetry.New(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "error: initializing telemetry: %v\n", err)
		return exitError
	}

	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}()

	catalog, err := i18n.New(cfg.I18n.Locale, cfg.I18n.Dir)
	if err != nil {
		fmt.Fprintf(stderr, "error: loading messages: %v\n", err)
		return exitError
	}

	e, err := newEnv(ctx, cfg, catalog, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	defer e.Close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "login":
		return e.login(ctx, rest, stdout, stderr)
	case "logout":
		return e.logout(ctx, stdout, stderr)
	case "health":
		return e.health(ctx, stdout)
	default:
		return e.request(ctx, strings.ToUpper(cmd), rest, opts.headers.header(), stdout, stderr)
	}
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.baseURL != "" {
		cfg.Client.BaseURL = opts.baseURL
	}

	if opts.locale != "" {
		cfg.I18n.Locale = opts.locale
	}

	if opts.storage != "" {
		cfg.Session.StoragePath = opts.storage
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// request sends METHOD PATH [JSON_BODY] and reports the outcome.
func (e *env) request(
	ctx context.Context,
	method string,
	args []string,
	header http.Header,
	stdout, stderr io.Writer,
) int {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(stderr, "usage: apictl METHOD PATH [JSON_BODY]")
		return exitError
	}

	target, err := url.Parse(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "error: invalid path: %v\n", err)
		return exitError
	}

	var body map[string]any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &body); err != nil {
			fmt.Fprintf(stderr, "error: body must be a JSON object: %v\n", err)
			return exitError
		}
	}

	req := clients.NewRequest(method, target.Path, body)
	req.Query = target.Query()
	req.Header = header

	resp, err := e.api.Execute(ctx, req)
	if err != nil {
		return e.report(err, stderr)
	}

	writeBody(stdout, resp.Body)

	return exitOK
}

// report prints a classified failure and picks the exit code.
func (e *env) report(err error, stderr io.Writer) int {
	var (
		se *acl.ServerError
		ce *domain.ClassifiedError
	)

	switch {
	case domain.IsLoggedOut(err):
		fmt.Fprintln(stderr, e.catalog.Lookup(ports.KeyLoggedOut))
		return exitLoggedOut
	case errors.As(err, &se):
		fmt.Fprintln(stderr, se.Error())
		if msg := se.Message(); msg != "" {
			fmt.Fprintln(stderr, msg)
		} else if se.Response != nil {
			writeBody(stderr, se.Response.Body)
		}
	case errors.As(err, &ce):
		fmt.Fprintln(stderr, ce.Message)
	default:
		fmt.Fprintln(stderr, err.Error())
	}

	return exitRequestFailed
}

// writeBody prints JSON indented and anything else verbatim.
func writeBody(w io.Writer, body []byte) {
	if len(body) == 0 {
		return
	}

	var out bytes.Buffer
	if json.Indent(&out, body, "", "  ") != nil {
		out.Reset()
		out.Write(body)
	}

	if !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}

	_, _ = w.Write(out.Bytes())
}
