package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/adapters/clients/acl"
	"github.com/jsamuelsen/go-api-client/internal/adapters/navigation"
	"github.com/jsamuelsen/go-api-client/internal/adapters/session"
	"github.com/jsamuelsen/go-api-client/internal/adapters/storage"
	"github.com/jsamuelsen/go-api-client/internal/app"
	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/platform/i18n"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

// env is the wired client for one invocation.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *i18n.Catalog
	storage *storage.SQLiteStore
	store   *session.Store
	history *navigation.History
	client  *clients.Client
	api     *app.APIClient
	inv     *app.SessionInvalidator

	creds atomic.Pointer[session.Credentials]
}

func newEnv(ctx context.Context, cfg *config.Config, catalog *i18n.Catalog, logger *slog.Logger) (*env, error) {
	db, err := storage.OpenSQLite(ctx, cfg.Session.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		storage: db,
	}

	creds, err := session.LoadCredentials(ctx, db, cfg.Session.PersistKey)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if creds == nil && cfg.Client.Token != "" {
		creds = &session.Credentials{Token: cfg.Client.Token}
	}

	e.creds.Store(creds)

	e.store = session.NewStore(session.InitialState(creds), logger)
	e.store.Subscribe(func(_, next session.State) {
		if !next.LoggedIn() {
			e.creds.Store(nil)
		}
	})

	e.history = navigation.NewHistory(cfg.Session.RootPath, logger)

	e.inv, err = app.NewSessionInvalidator(e.store, db, e.history, &app.SessionInvalidatorConfig{
		PersistKey: cfg.Session.PersistKey,
		RootPath:   cfg.Session.RootPath,
		Logger:     logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating session invalidator: %w", err)
	}

	e.client, err = clients.New(&clients.Config{
		BaseURL:     cfg.Client.BaseURL,
		ServiceName: cfg.Client.ServiceName,
		Timeout:     cfg.Client.Timeout,
		Transport:   cfg.Client.Transport,
		AuthFunc:    e.authorize,
		Logger:      logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	e.api, err = app.NewAPIClient(e.client, acl.NewClassifier(catalog), e.inv, &app.APIClientConfig{
		Logger: logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	return e, nil
}

// authorize sets the bearer token of the current session, if any.
func (e *env) authorize(req *http.Request) {
	if c := e.creds.Load(); c != nil {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// Close releases the state store.
func (e *env) Close() {
	if err := e.storage.Close(); err != nil {
		e.logger.Error("closing state store", slog.Any("error", err))
	}
}

// login stores TOKEN [SUBJECT] as the current session.
func (e *env) login(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || len(args) > 2 || args[0] == "" {
		fmt.Fprintln(stderr, "usage: apictl login TOKEN [SUBJECT]")
		return exitError
	}

	creds := session.Credentials{Token: args[0]}
	if len(args) == 2 {
		creds.Subject = args[1]
	}

	if err := session.SaveCredentials(ctx, e.storage, e.cfg.Session.PersistKey, creds); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	e.creds.Store(&creds)
	e.store.Dispatch(domain.LoginAction(creds.Subject))

	fmt.Fprintln(stdout, "logged in")

	return exitOK
}

// logout signs the user out the same way a rejected session does.
func (e *env) logout(ctx context.Context, stdout, stderr io.Writer) int {
	if err := e.inv.Invalidate(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	fmt.Fprintln(stdout, e.catalog.Lookup(ports.KeyLoggedOut))

	return exitOK
}

// health checks the upstream and the state store.
func (e *env) health(ctx context.Context, stdout io.Writer) int {
	registry := ports.NewHealthRegistry(e.cfg.Client.Timeout)

	_ = registry.Register(ports.NewCheck("upstream", func(ctx context.Context) error {
		_, err := e.client.Exchange(ctx, clients.NewRequest(http.MethodGet, "/-/live", nil))
		return err
	}))
	_ = registry.Register(ports.NewCheck("storage", e.storage.Ping))

	result := registry.CheckAll(ctx)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)

	if !result.Healthy() {
		return exitRequestFailed
	}

	return exitOK
}
