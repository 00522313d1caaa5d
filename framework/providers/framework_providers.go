package providers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/inspect"
	"github.com/km-arc/go-beans/framework/logging"
	"github.com/km-arc/go-beans/framework/metrics"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/types"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// binds it into the registry as "config".
//
// Bound abstracts:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Registry) {
	envFiles := p.EnvFiles
	app.Singleton("config", func(*container.Registry) (any, error) {
		return config.Load(envFiles...), nil
	})
	_ = app.Alias("config", "configuration")
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider builds the zap logger from config.Log.
//
// Bound abstracts:
//   - "logger"  → *zap.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) Register(app *container.Registry) {
	app.Singleton("logger", func(c *container.Registry) (any, error) {
		cfg, err := container.MakeAs[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		return logging.New(cfg.Log)
	})
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider registers the container metrics collector.
//
// Bound abstracts:
//   - "metrics"  → *metrics.Collector
type MetricsServiceProvider struct {
	container.BaseProvider
	Namespace string // metric name prefix, default: none
}

func (p *MetricsServiceProvider) Register(app *container.Registry) {
	namespace := p.Namespace
	app.Singleton("metrics", func(*container.Registry) (any, error) {
		return metrics.New(namespace), nil
	})
}

// ── TypesServiceProvider ──────────────────────────────────────────────────────

// TypesServiceProvider publishes the type registry beans are built from.
//
// Bound abstracts:
//   - "types"  → *types.Registry
type TypesServiceProvider struct {
	container.BaseProvider
	Types *types.Registry // default: an empty registry
}

func (p *TypesServiceProvider) Register(app *container.Registry) {
	reg := p.Types
	if reg == nil {
		reg = types.NewRegistry()
	}
	app.Instance("types", reg)
}

// ── BeansServiceProvider ──────────────────────────────────────────────────────

// BeansServiceProvider creates the declarative bean factory from
// config.Beans and initializes it on Boot, so a broken declarations source
// fails application startup.
//
// Bound abstracts:
//   - "beans"         → *container.DeclarativeFactory
//   - "bean.factory"  → alias of "beans"
type BeansServiceProvider struct {
	container.BaseProvider
	Options []container.Option // applied after the configured ones
}

func (p *BeansServiceProvider) Register(app *container.Registry) {
	extra := p.Options
	app.Singleton("beans", func(c *container.Registry) (any, error) {
		cfg, err := container.MakeAs[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		reg, err := container.MakeAs[*types.Registry](c, "types")
		if err != nil {
			return nil, err
		}
		log, err := container.MakeAs[*zap.Logger](c, "logger")
		if err != nil {
			return nil, err
		}
		m, err := container.MakeAs[*metrics.Collector](c, "metrics")
		if err != nil {
			return nil, err
		}

		opts := []container.Option{
			container.WithDefinitions(cfg.Beans.Definitions),
			container.WithParser(cfg.Beans.Parser),
			container.WithLogger(log.Named("beans")),
			container.WithMetrics(m),
		}
		return container.NewDeclarativeFactory(reg, append(opts, extra...)...), nil
	})
	_ = app.Alias("beans", "bean.factory")
}

func (p *BeansServiceProvider) Boot(app *container.Registry) error {
	f, err := container.MakeAs[*container.DeclarativeFactory](app, "beans")
	if err != nil {
		return err
	}
	if err := f.Init(); err != nil {
		return fmt.Errorf("beans: %w", err)
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and, on Boot, the bean
// inspection endpoints and the metrics scrape endpoint.
//
// Bound abstracts:
//   - "router"  → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Registry) {
	app.Singleton("router", func(c *container.Registry) (any, error) {
		log, err := container.MakeAs[*zap.Logger](c, "logger")
		if err != nil {
			return nil, err
		}
		return routing.New(log.Named("http")), nil
	})
}

func (p *RoutingServiceProvider) Boot(app *container.Registry) error {
	router, err := container.MakeAs[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	beans, err := container.MakeAs[*container.DeclarativeFactory](app, "beans")
	if err != nil {
		return err
	}
	reg, err := container.MakeAs[*types.Registry](app, "types")
	if err != nil {
		return err
	}
	log, err := container.MakeAs[*zap.Logger](app, "logger")
	if err != nil {
		return err
	}
	m, err := container.MakeAs[*metrics.Collector](app, "metrics")
	if err != nil {
		return err
	}

	inspect.NewController(beans, reg, log.Named("inspect")).Routes(router)
	router.Handle("/metrics", m.Handler())
	return nil
}
