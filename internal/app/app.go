// Package app assembles the login components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"phonelogin/internal/auth"
	"phonelogin/internal/config"
	"phonelogin/internal/files"
	"phonelogin/internal/identity"
	"phonelogin/internal/metrics"
	"phonelogin/internal/navigation"
	"phonelogin/internal/session"
	"phonelogin/internal/utils"
)

// App owns the long-lived components shared by every view.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Store    *session.Store
	Identity *identity.Client
	Metrics  *metrics.Recorder

	closers []func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	backend    files.Backend
}

// WithHTTPClient sets the client used for identity requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBackend bypasses backend construction from config.
func WithBackend(b files.Backend) Option {
	return func(o *options) { o.backend = b }
}

// New builds the app. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{Config: cfg, Log: log, Metrics: metrics.NewRecorder()}

	backend := o.backend
	if backend == nil {
		b, closeFn, err := OpenBackend(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		backend = b
		a.closers = append(a.closers, closeFn)
	}
	a.Store = session.NewStore(backend,
		session.WithKey(cfg.Session.Key),
		session.WithLogger(log),
	)

	a.Identity = identity.New(cfg.Identity.URL,
		identity.WithHTTPClient(o.httpClient),
		identity.WithTimeout(cfg.Identity.Timeout),
		identity.WithAvatarProbe(cfg.Identity.AvatarProbe, cfg.Identity.ProbeTimeout),
		identity.WithLogger(log),
	)
	return a, nil
}

// OpenBackend builds the configured session backend, sealing it when
// encryption is on.
func OpenBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (files.Backend, func() error, error) {
	var (
		backend files.Backend
		closeFn = func() error { return nil }
	)
	switch cfg.Session.Backend {
	case config.BackendMemory:
		backend = files.NewMemoryBackend(cfg.Session.MemoryQuota)
	case config.BackendRedis:
		client, err := files.DialRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		backend = files.NewRedisBackend(client, cfg.Redis.Prefix)
		closeFn = client.Close
	default:
		fb, err := files.NewFileBackend(cfg.Session.Dir)
		if err != nil {
			return nil, nil, err
		}
		backend = fb
	}
	log.Info().Str("backend", cfg.Session.Backend).Bool("encryption", cfg.Session.Encryption).Msg("session backend ready")

	if !cfg.Session.Encryption {
		return backend, closeFn, nil
	}
	master, err := files.ReadMasterKey(cfg.Session.MasterKeyFile)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("session encryption: %w", err)
	}
	var binding string
	if cfg.Session.BindDevice {
		binding, err = utils.DeviceBinding()
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("device binding: %w", err)
		}
	}
	sealed, err := files.NewSealedBackend(backend, master, binding)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sealed, closeFn, nil
}

// NewLogin returns a controller for one user flow navigating through nav.
func (a *App) NewLogin(nav navigation.Navigator) *auth.Login {
	return auth.NewLogin(a.Identity, a.Store, nav, auth.LoginConfig{
		MaxRetries:    a.Config.Login.MaxRetries,
		FetchDelay:    a.Config.Login.FetchDelay,
		RedirectDelay: a.Config.Login.RedirectDelay,
	}, auth.WithLogger(a.Log), auth.WithObserver(a.Metrics))
}

// NewGuard returns a session guard navigating through nav.
func (a *App) NewGuard(nav navigation.Navigator) *auth.Guard {
	return auth.NewGuard(a.Store, nav, a.Log)
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
