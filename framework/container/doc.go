// Package container provides an asynchronous IoC container: bean definitions,
// a bean manager, and the creational contexts that wire object graphs whose
// construction steps may complete on later turns of an event loop.
//
// # Overview
//
// A bean is defined by its type, an optional set of qualifiers and a scope.
// Providers construct instances through a callback, so a provider may finish
// immediately (Sync) or on a later loop turn (Deferred), for example once a
// code fragment has been loaded.
//
// Every request for a graph runs in a CreationalContext. The context records
// what it wired, deduplicates singleton construction that is already in
// flight, hands out proxies for circular references and finally runs its
// finish phase:
//
//  1. resolve every outstanding proxy, creating missing beans as needed
//  2. fire initialization callbacks
//  3. register created instances with the bean manager
//
// # Lifecycle
//
//  1. Create: m := container.New(container.WithLogger(log))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()
//  4. Look up beans on the loop: container.Lookup(m, cb)
//
// # Definitions
//
//	// Dependent: new instance per request
//	container.Define[*Toolbar](m).Provide(container.Sync(newToolbar))
//
//	// Singleton, constructed on a later turn
//	container.Define[*Editor](m).
//	    Singleton().
//	    Provide(container.Deferred(lp, newEditor))
//
//	// Qualified and named
//	container.Define[Store](m).Named("primary").Qualified("@Durable").Provide(p)
//
//	// Pre-built value
//	container.Define[*Config](m).Instance(cfg)
//
// # Looking up
//
// Lookup and Instantiate must run on the loop that owns the contexts. From
// another goroutine, use Await:
//
//	ed, err := container.Await(ctx, lp, func(done func(*Editor, error)) {
//	    container.Lookup(m, done)
//	})
//
// # Circular references
//
//	func newEditor(cb func(*Editor), cc *container.CreationalContext) {
//	    ed := &Editor{toolbar: container.NewProxy[*Toolbar](cc)}
//	    cc.AddInitializationCallback(ed, container.InitFunc(func(any) {
//	        ed.toolbar.Get().Attach(ed)
//	    }))
//	    cb(ed)
//	}
//
// # Deferred providers
//
//	type ReportsProvider struct{ container.BaseProvider }
//
//	func (p *ReportsProvider) IsDeferred() bool { return true }
//	func (p *ReportsProvider) Provides() []container.BeanRef {
//	    return []container.BeanRef{container.RefOf[*Reports]()}
//	}
//	func (p *ReportsProvider) Register(m *container.Manager) {
//	    container.Define[*Reports](m).Singleton().Provide(container.Sync(newReports))
//	}
//
// Until the first instantiation of *Reports the registry holds a placeholder
// bean; the provider is then loaded on a later loop turn, after
// WithLoadDelay if one was given to NewProviderRegistry.
package container
