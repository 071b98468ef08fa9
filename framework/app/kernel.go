package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-async-ioc/framework/config"
	"github.com/km-arc/go-async-ioc/framework/container"
	"github.com/km-arc/go-async-ioc/framework/debug"
	"github.com/km-arc/go-async-ioc/framework/logging"
	"github.com/km-arc/go-async-ioc/framework/loop"
	"github.com/km-arc/go-async-ioc/framework/manifest"
	"github.com/km-arc/go-async-ioc/framework/providers"
	"github.com/km-arc/go-async-ioc/framework/routing"
)

// DebugPrefix is where the introspection routes are mounted when APP_DEBUG is on.
const DebugPrefix = "/_ioc"

// Application wires the bean manager, its provider registry and the event
// loop every creational context runs on.
//
// The registry and the manager's contexts are single-threaded: once Start has
// been called, touch them only from loop tasks (see Resolve and Do).
type Application struct {
	Config    *config.Config
	Log       *zap.Logger
	Manager   *container.Manager
	Providers *container.ProviderRegistry
	Loop      *loop.EventLoop

	catalog *manifest.Catalog
	loopErr chan error
}

// Option customizes New.
type Option func(*Application)

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(l *zap.Logger) Option {
	return func(a *Application) { a.Log = l }
}

// WithCatalog supplies the factories the bean manifest refers to.
func WithCatalog(c *manifest.Catalog) Option {
	return func(a *Application) { a.catalog = c }
}

// New validates cfg and assembles the application. The framework providers
// are registered, followed by the providers of the bean manifest if one is
// configured.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: config: %w", err)
	}
	a := &Application{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.Log == nil {
		log, err := logging.New(cfg.Log, logging.WithAppName(cfg.App.Name))
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.Log = log
	}
	if a.catalog == nil {
		a.catalog = manifest.NewCatalog()
	}

	a.Loop = loop.New(loop.WithLogger(a.Log.Named("loop")))
	a.Manager = container.New(
		container.WithLogger(a.Log.Named("ioc")),
		container.WithMutable(cfg.IOC.MutableContexts))
	a.Providers = container.NewProviderRegistry(a.Manager, a.Loop,
		container.WithLoadDelay(cfg.IOC.SplitLoadDelay))

	// Register framework core providers
	a.Register(&providers.ConfigServiceProvider{Config: cfg})
	a.Register(&providers.LoggingServiceProvider{Logger: a.Log})
	a.Register(&providers.LoopServiceProvider{Loop: a.Loop})
	a.Register(&providers.RoutingServiceProvider{})
	a.Register(&providers.DebugServiceProvider{})

	if cfg.IOC.Manifest != "" {
		man, err := manifest.Load(cfg.IOC.Manifest)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		ps, err := manifest.Providers(man, a.catalog)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		for _, p := range ps {
			a.Register(p)
		}
		a.Log.Info("bean manifest loaded",
			zap.String("path", cfg.IOC.Manifest),
			zap.Int("beans", len(man.Beans)))
	}
	return a, nil
}

// Register adds a ServiceProvider. Call before Start, or from a loop task.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Start runs the event loop on its own goroutine until ctx ends, boots the
// providers on it and returns the HTTP handler to serve.
func (a *Application) Start(ctx context.Context) (http.Handler, error) {
	if a.loopErr != nil {
		return nil, errors.New("app: already started")
	}
	a.loopErr = make(chan error, 1)
	go func() { a.loopErr <- a.Loop.Run(ctx) }()

	if err := Do(ctx, a, a.Providers.Boot); err != nil {
		return nil, err
	}

	router, err := Resolve[*routing.Router](ctx, a, container.Named(providers.RouterBean))
	if err != nil {
		return nil, fmt.Errorf("app: router: %w", err)
	}
	if a.Config.App.Debug {
		h, err := Resolve[*debug.Handler](ctx, a, container.Named(providers.DebugBean))
		if err != nil {
			return nil, fmt.Errorf("app: debug routes: %w", err)
		}
		router.Prefix(DebugPrefix, h.Routes)
	}
	return router, nil
}

// Run starts the application and serves HTTP on cfg.App.Addr until ctx ends,
// then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler, err := a.Start(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: a.Config.App.Addr, Handler: handler}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	a.Log.Info("serving",
		zap.String("app", a.Config.App.Name),
		zap.String("addr", a.Config.App.Addr),
		zap.String("env", a.Config.App.Env))

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	case err := <-a.loopErr:
		_ = srv.Close()
		return fmt.Errorf("app: event loop: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	a.Log.Info("stopped")
	return nil
}

// Resolve looks up T on the application's loop and waits for the instance.
//
//	toolbar, err := app.Resolve[*Toolbar](ctx, application)
func Resolve[T any](ctx context.Context, a *Application, qualifiers ...container.Qualifier) (T, error) {
	return container.Await(ctx, a.Loop, func(done func(T, error)) {
		container.Lookup(a.Manager, done, qualifiers...)
	})
}

// Do runs fn on the application's loop and waits for it.
func Do(ctx context.Context, a *Application, fn func()) error {
	_, err := container.Await(ctx, a.Loop, func(done func(struct{}, error)) {
		fn()
		done(struct{}{}, nil)
	})
	return err
}

// Environment returns APP_ENV.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
