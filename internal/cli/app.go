package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"moneymanager/internal/aggregator"
	"moneymanager/internal/auth"
	authfirebase "moneymanager/internal/auth/firebase"
	"moneymanager/internal/auth/local"
	"moneymanager/internal/backend"
	"moneymanager/internal/blob"
	blobfirebase "moneymanager/internal/blob/firebase"
	blobmemory "moneymanager/internal/blob/memory"
	"moneymanager/internal/cache"
	"moneymanager/internal/config"
	applog "moneymanager/internal/log"
	"moneymanager/internal/ports"
	"moneymanager/internal/rates"
)

// usersFile sits next to the session file when the local auth backend is
// used.
const usersFile = "users.json"

// ErrRatesNotConfigured is returned by rate commands without EXCHANGE_API_URL.
var ErrRatesNotConfigured = errors.New("EXCHANGE_API_URL is not configured")

// App holds the adapters selected by configuration.
type App struct {
	Config   *config.Config
	Logger   *applog.Logger
	Session  *auth.Session
	Expenses *aggregator.Aggregator
	// Rates is nil when no exchange-rate service is configured.
	Rates *rates.Client

	caches   *cache.Manager
	cleanups []func() error
}

// AppBuilder constructs the App for a command run.
type AppBuilder func(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error)

// NewApp builds every adapter named by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		caches: cache.NewManager(logger),
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	if res.Cleanup != nil {
		app.cleanups = append(app.cleanups, res.Cleanup)
	}

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Expenses = aggregator.New(res.Backend, blob.NewUploader(blobs, logger),
		aggregator.WithTimeout(cfg.RequestTimeout),
		aggregator.WithLogger(logger))

	provider, err := newAuthProvider(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Session, err = auth.NewSession(provider, auth.NewFileStore(cfg.SessionFile), logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	if cfg.ExchangeAPIURL != "" {
		app.Rates, err = rates.New(cfg.ExchangeAPIURL, cfg.RequestTimeout, cfg.RatesCacheTTL, rates.WithLogger(logger))
		if err != nil {
			app.Close()
			return nil, err
		}
		app.caches.Register(app.Rates.Cache())
		if cfg.RatesCacheTTL > 0 {
			app.caches.StartCleanup(cfg.RatesCacheTTL)
		}
	}

	return app, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (ports.BlobStore, error) {
	switch cfg.BlobBackend {
	case "firebase":
		return blobfirebase.New(ctx, blobfirebase.Config{
			Bucket:          cfg.FirebaseStorageBucket,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		}, logger)
	case "memory":
		return blobmemory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.BlobBackend)
	}
}

func newAuthProvider(ctx context.Context, cfg *config.Config, logger *applog.Logger) (ports.AuthProvider, error) {
	switch cfg.AuthBackend {
	case "firebase":
		return authfirebase.New(ctx, cfg.FirebaseAPIKey, logger)
	case "local":
		return local.New(cfg.LocalAuthSecret,
			local.WithUsersFile(filepath.Join(filepath.Dir(cfg.SessionFile), usersFile)))
	default:
		return nil, fmt.Errorf("unsupported auth backend: %s", cfg.AuthBackend)
	}
}

// RequireSession returns the signed-in identity and loads the user's
// expenses.
func (a *App) RequireSession(ctx context.Context) error {
	if _, err := a.Session.Require(); err != nil {
		return err
	}
	return a.Expenses.Load(ctx)
}

// Close releases backend resources and stops cache cleanup.
func (a *App) Close() error {
	a.caches.Stop()
	var errs []error
	for _, c := range a.cleanups {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
