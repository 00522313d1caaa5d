package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/providers"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/types"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Application is the top-level application container.
// It embeds the Registry and ProviderRegistry so user code can call
// app.Bind(), app.Singleton(), app.Make() directly.
type Application struct {
	*container.Registry
	Providers *container.ProviderRegistry
}

// New creates the application and registers the framework providers. reg
// holds the bean types the declarations may name; it may be nil.
func New(reg *types.Registry, envFiles ...string) *Application {
	r := container.NewRegistry()
	registry := container.NewProviderRegistry(r)

	app := &Application{
		Registry:  r,
		Providers: registry,
	}

	// Order matters: later providers resolve earlier bindings on Boot.
	registry.Register(&providers.ConfigServiceProvider{EnvFiles: envFiles})
	registry.Register(&providers.LoggingServiceProvider{})
	registry.Register(&providers.MetricsServiceProvider{})
	registry.Register(&providers.TypesServiceProvider{Types: reg})
	registry.Register(&providers.BeansServiceProvider{})
	registry.Register(&providers.RoutingServiceProvider{})

	return app
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers. It initializes the bean
// factory.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves *config.Config from the registry.
func (a *Application) Config() *config.Config {
	return container.MustMake[*config.Config](a.Registry, "config")
}

// Logger resolves the application logger.
func (a *Application) Logger() *zap.Logger {
	return container.MustMake[*zap.Logger](a.Registry, "logger")
}

// Router resolves *routing.Router from the registry.
func (a *Application) Router() *routing.Router {
	return container.MustMake[*routing.Router](a.Registry, "router")
}

// Beans resolves the declarative bean factory.
func (a *Application) Beans() *container.DeclarativeFactory {
	return container.MustMake[*container.DeclarativeFactory](a.Registry, "beans")
}

// Run boots the application (if needed) and serves HTTP on APP_PORT until
// ctx is done, then drains connections and calls Shutdown.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	cfg, log := a.Config(), a.Logger()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	served := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("app", cfg.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
		)
		served <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-served:
	case <-ctx.Done():
		drain, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(drain)
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return multierr.Append(err, a.Shutdown())
}

// Shutdown destroys the bean factory if it was created and flushes the
// logger.
func (a *Application) Shutdown() error {
	var err error
	if a.Resolved("beans") {
		err = a.Beans().Destroy()
	}
	if a.Resolved("logger") {
		// Sync on stderr returns EINVAL on some platforms.
		_ = a.Logger().Sync()
	}
	return err
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
