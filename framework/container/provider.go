package container

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-async-ioc/framework/loop"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups bean definitions that belong together.
//
// Register defines beans. Boot is called after ALL eager providers have been
// registered, making it safe to look up beans defined elsewhere.
//
//	type GreeterProvider struct{ container.BaseProvider }
//
//	func (p *GreeterProvider) Register(m *container.Manager) {
//	    container.Define[*Greeter](m).Singleton().Provide(container.Sync(newGreeter))
//	}
type ServiceProvider interface {
	// Register defines beans in the manager.
	// Do NOT instantiate beans here; use Boot() for that.
	Register(m *Manager)

	// Boot is called after all eager providers are registered.
	Boot(m *Manager)

	// Provides lists the references a deferred provider defines. The registry
	// stands in for them until the provider is loaded.
	Provides() []BeanRef

	// IsDeferred returns true if the provider is a split point: it is only
	// loaded, on a later loop turn, when one of its Provides() refs is first
	// instantiated.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(m *container.Manager) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Manager)     {}
func (p *BaseProvider) Provides() []BeanRef { return nil }
func (p *BaseProvider) IsDeferred() bool    { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders. Deferred providers
// are represented by placeholder beans until first use; loading one takes a
// turn of the loop, the way a split fragment is fetched before its code runs.
type ProviderRegistry struct {
	manager    *Manager
	loop       loop.Loop
	eager      []ServiceProvider
	booted     bool
	registered map[ServiceProvider]bool

	// deferred provider → placeholder beans
	placeholders map[ServiceProvider][]*Bean
	loaded       map[ServiceProvider]bool
	loads        *WaitList[struct{}]
	delay        time.Duration

	log *zap.Logger
}

// RegistryOption customizes a ProviderRegistry.
type RegistryOption func(*ProviderRegistry)

// WithLoadDelay holds every deferred load for d before it is posted, the way
// fetching a split fragment takes time. The loop must accept posts from other
// goroutines, as loop.EventLoop does.
func WithLoadDelay(d time.Duration) RegistryOption {
	return func(r *ProviderRegistry) { r.delay = d }
}

// NewProviderRegistry creates a registry bound to m. Deferred providers load
// on lp.
func NewProviderRegistry(m *Manager, lp loop.Loop, opts ...RegistryOption) *ProviderRegistry {
	r := &ProviderRegistry{
		manager:      m,
		loop:         lp,
		registered:   make(map[ServiceProvider]bool),
		placeholders: make(map[ServiceProvider][]*Bean),
		loaded:       make(map[ServiceProvider]bool),
		loads:        NewWaitList[struct{}](),
		log:          m.Logger().Named("providers"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a provider and calls its Register() method (unless deferred).
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	if r.registered[provider] {
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		refs := provider.Provides()
		if len(refs) > 0 {
			r.registerPlaceholders(provider, refs)
			return
		}
		r.log.Warn("deferred provider provides nothing; registering eagerly",
			zap.String("provider", fmt.Sprintf("%T", provider)))
	}

	provider.Register(r.manager)
	r.eager = append(r.eager, provider)

	// If already booted, boot this provider immediately
	if r.booted {
		provider.Boot(r.manager)
	}
}

func (r *ProviderRegistry) registerPlaceholders(provider ServiceProvider, refs []BeanRef) {
	for _, ref := range refs {
		sp := &splitProvider{registry: r, provider: provider, ref: ref}
		b := r.manager.register(&Bean{
			manager:    r.manager,
			typ:        ref.Type(),
			qualifiers: ref.Qualifiers(),
			name:       namedIn(ref),
			scope:      Dependent,
			provider:   sp,
			key:        sp,
		})
		r.placeholders[provider] = append(r.placeholders[provider], b)
	}
	r.log.Debug("deferred provider registered",
		zap.String("provider", fmt.Sprintf("%T", provider)),
		zap.Int("refs", len(refs)))
}

// namedIn returns the name carried by ref's @Named qualifier, if any.
func namedIn(ref BeanRef) string {
	for _, q := range ref.Qualifiers() {
		if name, ok := strings.CutPrefix(string(q), "@Named("); ok {
			return strings.TrimSuffix(name, ")")
		}
	}
	return ""
}

// Load makes sure provider is loaded and then calls done. The load itself
// happens on a later loop turn; concurrent loads share one.
func (r *ProviderRegistry) Load(provider ServiceProvider, done func()) {
	if r.loaded[provider] {
		done()
		return
	}
	wait := func(struct{}) { done() }
	if r.loads.IsWaitedOn(provider) {
		r.loads.AddWait(provider, wait)
		return
	}
	r.loads.AddWait(provider, wait)

	load := func() {
		for _, b := range r.placeholders[provider] {
			r.manager.unregister(b)
		}
		delete(r.placeholders, provider)

		provider.Register(r.manager)
		if r.booted {
			provider.Boot(r.manager)
		}
		r.loaded[provider] = true
		r.log.Debug("deferred provider loaded",
			zap.String("provider", fmt.Sprintf("%T", provider)))

		r.loads.NotifyAllWaiting(provider, struct{}{})
	}
	if r.delay > 0 {
		time.AfterFunc(r.delay, func() { r.loop.Post(load) })
		return
	}
	r.loop.Post(load)
}

// Loaded reports whether a deferred provider has been loaded.
func (r *ProviderRegistry) Loaded(provider ServiceProvider) bool { return r.loaded[provider] }

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot() {
	if r.booted {
		return
	}
	r.booted = true
	for _, provider := range r.eager {
		provider.Boot(r.manager)
	}
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// splitProvider backs a placeholder bean: it loads the deferred provider and
// then delegates to whatever bean the provider defined for ref.
type splitProvider struct {
	registry *ProviderRegistry
	provider ServiceProvider
	ref      BeanRef
}

func (s *splitProvider) getAny(cb func(any), cc *CreationalContext) {
	s.registry.Load(s.provider, func() {
		def, err := s.registry.manager.LookupBean(s.ref.Type(), s.ref.Qualifiers()...)
		if err != nil {
			panic(fmt.Sprintf("container: deferred provider %T did not define %s: %v", s.provider, s.ref, err))
		}
		def.GetInstance(cb, cc)
	})
}
