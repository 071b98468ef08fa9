package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-async-ioc/framework/config"
	"github.com/km-arc/go-async-ioc/framework/container"
	"github.com/km-arc/go-async-ioc/framework/debug"
	"github.com/km-arc/go-async-ioc/framework/loop"
	"github.com/km-arc/go-async-ioc/framework/routing"
)

// Names the framework beans are registered under.
const (
	ConfigBean = "config"
	LoggerBean = "logger"
	LoopBean   = "loop"
	RouterBean = "router"
	DebugBean  = "debug"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration.
//
// Bound beans:
//   - "config"  → *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(m *container.Manager) {
	container.Define[*config.Config](m).Named(ConfigBean).Instance(p.Config)
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Bound beans:
//   - "logger"  → *zap.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(m *container.Manager) {
	container.Define[*zap.Logger](m).Named(LoggerBean).Instance(p.Logger)
}

// ── LoopServiceProvider ───────────────────────────────────────────────────────

// LoopServiceProvider binds the event loop every asynchronous provider posts to.
//
// Bound beans:
//   - "loop"  → loop.Loop
type LoopServiceProvider struct {
	container.BaseProvider
	Loop loop.Loop
}

func (p *LoopServiceProvider) Register(m *container.Manager) {
	container.Define[loop.Loop](m).Named(LoopBean).Instance(p.Loop)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. The router logs requests
// through the "logger" bean.
//
// Bound beans:
//   - "router"  → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(m *container.Manager) {
	container.Define[*routing.Router](m).
		Named(RouterBean).
		Singleton().
		Provide(container.NewProvider(func(cb func(*routing.Router), cc *container.CreationalContext) {
			container.GetBeanInstance(cc, nil, func(log *zap.Logger) {
				cb(routing.New(named(log, "http")))
			}, container.Named(LoggerBean))
		}))
}

// ── DebugServiceProvider ──────────────────────────────────────────────────────

// DebugServiceProvider is deferred: the introspection handler is only
// registered the first time something asks for it.
//
// Bound beans:
//   - "debug"  → *debug.Handler
type DebugServiceProvider struct {
	container.BaseProvider
}

func (p *DebugServiceProvider) IsDeferred() bool { return true }

func (p *DebugServiceProvider) Provides() []container.BeanRef {
	return []container.BeanRef{container.RefOf[*debug.Handler](container.Named(DebugBean))}
}

func (p *DebugServiceProvider) Register(m *container.Manager) {
	container.Define[*debug.Handler](m).
		Named(DebugBean).
		Singleton().
		Provide(container.NewProvider(func(cb func(*debug.Handler), cc *container.CreationalContext) {
			container.GetBeanInstance(cc, nil, func(lp loop.Loop) {
				container.GetBeanInstance(cc, nil, func(log *zap.Logger) {
					cb(debug.NewHandler(m, lp, debug.WithLogger(named(log, "debug"))))
				}, container.Named(LoggerBean))
			}, container.Named(LoopBean))
		}))
}

// named tolerates a manager without a "logger" bean.
func named(log *zap.Logger, name string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.Named(name)
}
