package container

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// BeanManager is the registry a creational context delegates to. It is shared
// by every context; the context never owns it.
type BeanManager interface {
	LookupBean(t reflect.Type, qualifiers ...Qualifier) (BeanDef, error)
	LookupBeans(t reflect.Type, qualifiers ...Qualifier) []BeanDef
	AddBeanToContext(instance any, cc *CreationalContext)
	AddProxyReference(proxyRef, realRef any)
}

// ── Options ───────────────────────────────────────────────────────────────────

type settings struct {
	log     *zap.Logger
	mutable bool
	scope   Scope
}

// Option configures a Manager or a CreationalContext.
type Option func(*settings)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMutable lets a context overwrite an already wired reference.
func WithMutable(mutable bool) Option {
	return func(s *settings) { s.mutable = mutable }
}

// WithScope records the scope a context creates beans for.
func WithScope(scope Scope) Option {
	return func(s *settings) { s.scope = scope }
}

func buildSettings(base settings, opts []Option) settings {
	for _, opt := range opts {
		opt(&base)
	}
	if base.log == nil {
		base.log = zap.NewNop()
	}
	return base
}

// ── Manager ───────────────────────────────────────────────────────────────────

// Manager is the bean registry: definitions by type and qualifiers, proxy
// aliases, and the context that owns each registered instance.
//
// Registration and lookups are safe for concurrent use. Instantiate and Lookup
// drive creational contexts and must run on the loop that owns them.
type Manager struct {
	mu sync.RWMutex

	// definitions in registration order
	beans []*Bean

	// name → definition
	names map[string]*Bean

	// proxy → real instance
	proxies map[any]any

	// instance → owning context
	owners map[any]*CreationalContext

	afterRegistering []func(instance any, cc *CreationalContext)

	// standalone singleton creation in flight
	waits *WaitList[outcome]

	settings settings
}

type outcome struct {
	value any
	err   error
}

// New creates an empty bean manager. Options also become the defaults for
// contexts created through NewContext.
func New(opts ...Option) *Manager {
	return &Manager{
		names:    make(map[string]*Bean),
		proxies:  make(map[any]any),
		owners:   make(map[any]*CreationalContext),
		waits:    NewWaitList[outcome](),
		settings: buildSettings(settings{scope: Dependent}, opts),
	}
}

// Logger returns the manager's logger.
func (m *Manager) Logger() *zap.Logger { return m.settings.log }

// NewContext creates a creational context bound to m.
func (m *Manager) NewContext(opts ...Option) *CreationalContext {
	return newCreationalContext(m, buildSettings(m.settings, opts))
}

// ── Registration ──────────────────────────────────────────────────────────────

func (m *Manager) register(b *Bean) *Bean {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.name != "" {
		if _, exists := m.names[b.name]; exists {
			panic(fmt.Sprintf("container: bean named %q already registered", b.name))
		}
		m.names[b.name] = b
	}
	m.beans = append(m.beans, b)
	m.settings.log.Debug("bean registered",
		zap.Stringer("bean", b),
		zap.Stringer("scope", b.scope))
	return b
}

func (m *Manager) unregister(b *Bean) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beans = slices.DeleteFunc(m.beans, func(x *Bean) bool { return x == b })
	if b.name != "" && m.names[b.name] == b {
		delete(m.names, b.name)
	}
}

// registerSingleton records a freshly created singleton. The definition that
// owns the provider keeps the instance; an instance without a definition gets
// a new one. The returned func withdraws the instance again; it is nil when
// an earlier instance was kept.
func (m *Manager) registerSingleton(ref BeanRef, key any, instance any) (undo func()) {
	m.mu.Lock()
	for _, b := range m.beans {
		if key == nil || b.key != key {
			continue
		}
		if b.hasInstance {
			m.mu.Unlock()
			m.settings.log.Warn("singleton created twice; keeping the first instance",
				zap.Stringer("bean", b))
			return nil
		}
		b.instance, b.hasInstance = instance, true
		m.mu.Unlock()
		return func() { m.withdraw(b, instance) }
	}
	m.mu.Unlock()

	b := m.register(&Bean{
		manager:     m,
		typ:         ref.Type(),
		qualifiers:  ref.Qualifiers(),
		scope:       Singleton,
		instance:    instance,
		hasInstance: true,
	})
	return func() { m.unregister(b) }
}

// withdraw clears b's instance if it is still instance.
func (m *Manager) withdraw(b *Bean, instance any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.hasInstance && sameInstance(b.instance, instance) {
		b.instance, b.hasInstance = nil, false
		m.settings.log.Debug("singleton withdrawn", zap.Stringer("bean", b))
	}
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// LookupBeans returns every definition assignable to t that carries all the
// requested qualifiers, in registration order. With no qualifiers, every
// definition of the type matches.
func (m *Manager) LookupBeans(t reflect.Type, qualifiers ...Qualifier) []BeanDef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []BeanDef
	for _, b := range m.beans {
		if b.assignableTo(t) && b.hasQualifiers(qualifiers) {
			out = append(out, b)
		}
	}
	return out
}

// LookupBean returns the single definition matching t and qualifiers. With no
// qualifiers requested, @Default beans win over qualified ones.
func (m *Manager) LookupBean(t reflect.Type, qualifiers ...Qualifier) (BeanDef, error) {
	matches := m.LookupBeans(t, qualifiers...)
	if len(matches) > 1 && len(qualifiers) == 0 {
		matches = slices.DeleteFunc(matches, func(d BeanDef) bool {
			return !slices.Contains(d.Qualifiers(), Default)
		})
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrUnsatisfiedBean, NewBeanRef(t, qualifiers...))
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, d := range matches {
		names[i] = fmt.Sprint(d)
	}
	return nil, &AmbiguousBeanError{Ref: NewBeanRef(t, qualifiers...), Candidates: names}
}

// BeanNamed returns the definition registered under name.
func (m *Manager) BeanNamed(name string) (BeanDef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.names[name]
	return b, ok
}

// Beans returns all definitions in registration order.
func (m *Manager) Beans() []BeanDef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BeanDef, len(m.beans))
	for i, b := range m.beans {
		out[i] = b
	}
	return out
}

// ── Context registration ──────────────────────────────────────────────────────

// AddBeanToContext records cc as the owner of instance and fires the
// AfterRegistering callbacks. Instances that cannot be map keys are skipped.
func (m *Manager) AddBeanToContext(instance any, cc *CreationalContext) {
	if !trackable(instance) {
		m.settings.log.Debug("instance not tracked: type is not comparable",
			zap.String("type", fmt.Sprintf("%T", instance)))
		return
	}
	m.mu.Lock()
	m.owners[instance] = cc
	cbs := slices.Clone(m.afterRegistering)
	m.mu.Unlock()

	for _, cb := range cbs {
		cb(instance, cc)
	}
}

// AfterRegistering registers a callback fired whenever a context registers a
// created instance with the manager.
func (m *Manager) AfterRegistering(cb func(instance any, cc *CreationalContext)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterRegistering = append(m.afterRegistering, cb)
}

// ContextOf returns the context that created instance.
func (m *Manager) ContextOf(instance any) (*CreationalContext, bool) {
	if !trackable(instance) {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cc, ok := m.owners[instance]
	return cc, ok
}

// DestroyBean runs the destruction callbacks registered for instance in its
// owning context and forgets it. It reports whether instance was known.
func (m *Manager) DestroyBean(instance any) bool {
	if !trackable(instance) {
		return false
	}
	m.mu.Lock()
	cc, ok := m.owners[instance]
	delete(m.owners, instance)
	for proxy, target := range m.proxies {
		if target == instance {
			delete(m.proxies, proxy)
		}
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	cc.destroy(instance)
	return true
}

// ── Proxies ───────────────────────────────────────────────────────────────────

// AddProxyReference records that proxyRef now stands for realRef.
func (m *Manager) AddProxyReference(proxyRef, realRef any) {
	if !trackable(proxyRef) {
		panic(fmt.Sprintf("container: proxy of type %T cannot be tracked", proxyRef))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxies[proxyRef] = realRef
}

// ProxyTarget returns the real instance behind proxyRef.
func (m *Manager) ProxyTarget(proxyRef any) (any, bool) {
	if !trackable(proxyRef) {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	target, ok := m.proxies[proxyRef]
	return target, ok
}

// ── Standalone creation ───────────────────────────────────────────────────────

// Instantiate creates (or returns) an instance of def in a fresh creational
// context and finishes that context before delivering. Concurrent requests for
// the same singleton share one construction.
func (m *Manager) Instantiate(def BeanDef, cb func(any, error)) {
	if inst, ok := def.Instance(); ok {
		cb(inst, nil)
		return
	}
	if def.Scope() != Singleton {
		m.create(def, cb)
		return
	}

	deliver := func(o outcome) { cb(o.value, o.err) }
	if m.waits.IsWaitedOn(def) {
		m.waits.AddWait(def, deliver)
		return
	}
	m.waits.AddWait(def, deliver)
	m.create(def, func(v any, err error) {
		m.waits.NotifyAllWaiting(def, outcome{value: v, err: err})
	})
}

func (m *Manager) create(def BeanDef, cb func(any, error)) {
	cc := m.NewContext(WithScope(def.Scope()))
	def.GetInstance(func(v any) {
		cc.Finish(func(err error) {
			if err != nil {
				cb(nil, err)
				return
			}
			cb(v, nil)
		})
	}, cc)
}

// Lookup finds the single bean matching T and qualifiers and instantiates it.
//
//	container.Lookup(m, func(svc *Greeter, err error) { ... })
func Lookup[T any](m *Manager, cb func(T, error), qualifiers ...Qualifier) {
	def, err := m.LookupBean(reflect.TypeFor[T](), qualifiers...)
	if err != nil {
		var zero T
		cb(zero, err)
		return
	}
	m.Instantiate(def, func(v any, err error) {
		if err != nil {
			var zero T
			cb(zero, err)
			return
		}
		cb(cast[T](v), nil)
	})
}

func trackable(v any) bool {
	return v != nil && reflect.TypeOf(v).Comparable()
}
