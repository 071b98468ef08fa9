package container

// ProxyResolver patches a forward reference once the real instance exists.
type ProxyResolver interface {
	Resolve(instance any)
}

// ProxyResolverFunc adapts a function to ProxyResolver.
type ProxyResolverFunc func(instance any)

// Resolve implements ProxyResolver.
func (f ProxyResolverFunc) Resolve(instance any) { f(instance) }

// InitializationCallback runs once an instance is fully wired.
type InitializationCallback interface {
	Init(instance any)
}

// InitFunc adapts a function to InitializationCallback.
type InitFunc func(instance any)

// Init implements InitializationCallback.
func (f InitFunc) Init(instance any) { f(instance) }

// DestructionCallback runs when the bean manager destroys an instance.
type DestructionCallback interface {
	Destroy(instance any)
}

// DestroyFunc adapts a function to DestructionCallback.
type DestroyFunc func(instance any)

// Destroy implements DestructionCallback.
func (f DestroyFunc) Destroy(instance any) { f(instance) }

// Proxy is a placeholder handed out in place of a T that is not constructed
// yet, typically one side of a circular dependency. It starts delegating once
// the context resolves its reference during Finish.
type Proxy[T any] struct {
	ref      BeanRef
	target   T
	resolved bool
}

// NewProxy registers an unresolved proxy for T in cc.
//
//	editor.toolbar = container.NewProxy[*Toolbar](cc)
//	...
//	editor.toolbar.Get().Render()
func NewProxy[T any](cc *CreationalContext, qualifiers ...Qualifier) *Proxy[T] {
	p := &Proxy[T]{ref: RefOf[T](qualifiers...)}
	cc.AddUnresolvedProxy(p.ref, ProxyResolverFunc(func(instance any) {
		p.target = cast[T](instance)
		p.resolved = true
		cc.AddProxyReference(p, instance)
	}))
	return p
}

// Ref returns the reference the proxy stands for.
func (p *Proxy[T]) Ref() BeanRef { return p.ref }

// Resolved reports whether the real instance has been patched in.
func (p *Proxy[T]) Resolved() bool { return p.resolved }

// Get returns the real instance. Calling it before resolution is a wiring bug.
func (p *Proxy[T]) Get() T {
	if !p.resolved {
		panic("container: proxy for " + p.ref.String() + " used before resolution")
	}
	return p.target
}
