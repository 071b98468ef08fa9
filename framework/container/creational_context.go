package container

import (
	"errors"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type initEntry struct {
	owner any
	cb    InitializationCallback
}

type destroyEntry struct {
	owner any
	cb    DestructionCallback
}

// CreationalContext holds the instances wired while resolving one object graph
// and runs the finish phase for it: proxy resolution, then initialization
// callbacks, then registration with the bean manager.
//
// A context is confined to one loop and finishes once.
type CreationalContext struct {
	id        uuid.UUID
	scope     Scope
	immutable bool
	manager   BeanManager
	beans     *BeanContext
	waits     *WaitList[any]
	log       *zap.Logger

	wired   map[BeanRef]any
	created []any

	// unresolved proxies; order keeps the pass stable
	unresolved      map[BeanRef][]ProxyResolver
	unresolvedOrder []BeanRef

	initCallbacks    []initEntry
	destroyCallbacks []destroyEntry

	// singletons published to the manager, withdrawn if finish fails
	rollbacks []func()

	finishRequested bool
}

// NewCreationalContext creates a context that delegates to manager. Contexts
// are immutable unless WithMutable(true) is given.
func NewCreationalContext(manager BeanManager, opts ...Option) *CreationalContext {
	return newCreationalContext(manager, buildSettings(settings{scope: Dependent}, opts))
}

func newCreationalContext(manager BeanManager, s settings) *CreationalContext {
	if manager == nil {
		panic("container: creational context needs a bean manager")
	}
	id := uuid.New()
	log := s.log.With(zap.Stringer("context", id))
	return &CreationalContext{
		id:         id,
		scope:      s.scope,
		immutable:  !s.mutable,
		manager:    manager,
		beans:      newBeanContext("CreationalContext "+s.scope.String(), log),
		waits:      NewWaitList[any](),
		log:        log,
		wired:      make(map[BeanRef]any),
		unresolved: make(map[BeanRef][]ProxyResolver),
	}
}

// ID identifies the context in logs.
func (cc *CreationalContext) ID() uuid.UUID { return cc.id }

// Scope is the scope the context creates beans for.
func (cc *CreationalContext) Scope() Scope { return cc.scope }

// BeanContext returns the finish-phase gate.
func (cc *CreationalContext) BeanContext() *BeanContext { return cc.beans }

// WaitList returns the singleton wait list.
func (cc *CreationalContext) WaitList() *WaitList[any] { return cc.waits }

// ── Wiring state ──────────────────────────────────────────────────────────────

// AddBean wires instance under ref. In an immutable context a ref can be wired
// only once.
func (cc *CreationalContext) AddBean(ref BeanRef, instance any) error {
	if _, exists := cc.wired[ref]; exists && cc.immutable {
		return &DuplicateWireError{Ref: ref}
	}
	cc.wired[ref] = instance
	cc.addCreated(instance)
	return nil
}

// Wired returns the instance wired under ref.
func (cc *CreationalContext) Wired(ref BeanRef) (any, bool) {
	inst, ok := cc.wired[ref]
	return inst, ok
}

func (cc *CreationalContext) addCreated(instance any) {
	for _, c := range cc.created {
		if sameInstance(c, instance) {
			return
		}
	}
	cc.created = append(cc.created, instance)
}

// CreatedInstances returns the instances created in this context, oldest first.
func (cc *CreationalContext) CreatedInstances() []any { return slices.Clone(cc.created) }

// AddUnresolvedProxy queues resolver until ref is wired.
func (cc *CreationalContext) AddUnresolvedProxy(ref BeanRef, resolver ProxyResolver) {
	if _, ok := cc.unresolved[ref]; !ok {
		cc.unresolvedOrder = append(cc.unresolvedOrder, ref)
	}
	cc.unresolved[ref] = append(cc.unresolved[ref], resolver)
}

// UnresolvedRefs returns the references still waiting for an instance.
func (cc *CreationalContext) UnresolvedRefs() []BeanRef { return slices.Clone(cc.unresolvedOrder) }

func (cc *CreationalContext) removeUnresolved(ref BeanRef) {
	delete(cc.unresolved, ref)
	cc.unresolvedOrder = slices.DeleteFunc(cc.unresolvedOrder, func(r BeanRef) bool { return r == ref })
}

// AddInitializationCallback registers cb to run once instance is fully wired.
func (cc *CreationalContext) AddInitializationCallback(instance any, cb InitializationCallback) {
	cc.initCallbacks = append(cc.initCallbacks, initEntry{owner: instance, cb: cb})
}

// PendingInitializations returns how many initialization callbacks have not fired.
func (cc *CreationalContext) PendingInitializations() int { return len(cc.initCallbacks) }

// AddDestructionCallback registers cb to run when the bean manager destroys instance.
func (cc *CreationalContext) AddDestructionCallback(instance any, cb DestructionCallback) {
	cc.destroyCallbacks = append(cc.destroyCallbacks, destroyEntry{owner: instance, cb: cb})
}

// AddProxyReference forwards to the bean manager.
func (cc *CreationalContext) AddProxyReference(proxyRef, realRef any) {
	cc.manager.AddProxyReference(proxyRef, realRef)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// getInstanceOrNew delivers the wired instance for ref, or delegates to the
// provider.
func (cc *CreationalContext) getInstanceOrNew(ref BeanRef, provider anyProvider, cb func(any)) {
	if inst, ok := cc.wired[ref]; ok {
		cb(inst)
		return
	}
	provider.getAny(once(ref.String(), cb), cc)
}

// getBeanInstance delivers the wired instance for ref, or the instance of the
// single live singleton the bean manager knows for it, or nil. When waiter is
// pending in the bean context, the lookup runs after the finish phase.
func (cc *CreationalContext) getBeanInstance(waiter *Ticket, cb func(any), ref BeanRef) {
	lookup := func() {
		if inst, ok := cc.wired[ref]; ok {
			cb(inst)
			return
		}
		if def := soleSingleton(cc.manager.LookupBeans(ref.Type(), ref.Qualifiers()...)); def != nil {
			def.GetInstance(cb, cc)
			return
		}
		cb(nil)
	}

	if cc.beans.IsWaitedOn(waiter) {
		cc.log.Debug("bean lookup deferred to finish", zap.Stringer("ref", ref))
		cc.beans.AppendRunOnFinish(lookup)
		return
	}
	lookup()
}

func soleSingleton(defs []BeanDef) BeanDef {
	var found BeanDef
	for _, d := range defs {
		if d.Scope() != Singleton {
			continue
		}
		if found != nil {
			return nil
		}
		found = d
	}
	if found == nil {
		return nil
	}
	if _, live := found.Instance(); !live {
		return nil
	}
	return found
}

// getSingletonInstanceOrNew ensures at most one construction per provider is
// in flight; every concurrent requester receives the same instance.
func (cc *CreationalContext) getSingletonInstanceOrNew(ic *InjectionContext, key any, provider anyProvider, cb func(any), ref BeanRef) {
	cc.getBeanInstance(nil, func(inst any) {
		if inst != nil {
			cb(inst)
			return
		}
		if cc.waits.IsWaitedOn(key) {
			cc.waits.AddWait(key, cb)
			return
		}
		cc.waits.AddWait(key, nil)

		ticket := cc.beans.Wait("singleton " + ref.String())
		cc.log.Debug("singleton construction started", zap.Stringer("ref", ref))
		provider.getAny(once(ref.String(), func(bean any) {
			ic.AddBean(ref, key, bean)
			cb(bean)
			cc.waits.NotifyAllWaiting(key, bean)
			cc.beans.Done(ticket)
		}), cc)
	}, ref)
}

// ── Finish phase ──────────────────────────────────────────────────────────────

// Finish runs the finish phase once every pending construction has completed:
// all proxies are resolved, then all initialization callbacks fire, then every
// created instance is registered with the bean manager, then done is called.
// A proxy that cannot be resolved is delivered as *UnresolvedProxyError and
// the later stages do not run.
func (cc *CreationalContext) Finish(done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if cc.finishRequested {
		done(ErrContextFinished)
		return
	}
	cc.finishRequested = true

	cc.beans.RunOnFinishAsync(func(settled func()) {
		cc.resolveAllProxies(func(err error) {
			defer settled()
			if err != nil {
				cc.log.Error("finish failed", zap.Error(err))
				cc.rollback()
				done(err)
				return
			}
			cc.rollbacks = nil
			cc.fireAllInitCallbacks()
			cc.registerAllBeans()
			cc.log.Debug("finish complete", zap.Int("created", len(cc.created)))
			done(nil)
		})
	})
	cc.beans.Finish()
}

// resolveAllProxies makes one pass over a snapshot of the unresolved proxies.
// When a referenced bean has to be created first, the pass stops and starts
// over once it exists.
func (cc *CreationalContext) resolveAllProxies(done func(error)) {
	snapshot := slices.Clone(cc.unresolvedOrder)
	initialSize := len(cc.unresolved)

	for _, ref := range snapshot {
		resolvers, ok := cc.unresolved[ref]
		if !ok {
			continue
		}

		if inst, wired := cc.wired[ref]; wired {
			for _, r := range resolvers {
				r.Resolve(inst)
			}
			cc.fireInitCallbacksFor(inst)
			cc.removeUnresolved(ref)
			continue
		}

		def, err := cc.manager.LookupBean(ref.Type(), ref.Qualifiers()...)
		if errors.Is(err, ErrUnsatisfiedBean) {
			continue
		}
		if err != nil {
			done(err)
			return
		}

		cc.log.Debug("creating bean for proxy", zap.Stringer("ref", ref))
		def.GetInstance(func(inst any) {
			if _, wired := cc.wired[ref]; !wired {
				if err := cc.AddBean(ref, inst); err != nil {
					panic(err)
				}
			}
			cc.resolveAllProxies(done)
		}, cc)
		return
	}

	if len(cc.unresolved) > 0 && initialSize != len(cc.unresolved) {
		done(&UnresolvedProxyError{Ref: cc.unresolvedOrder[0]})
		return
	}
	if len(cc.unresolved) > 0 {
		cc.log.Warn("proxies left unresolved without progress",
			zap.Int("count", len(cc.unresolved)),
			zap.Stringer("first", cc.unresolvedOrder[0]))
	}
	done(nil)
}

func (cc *CreationalContext) fireInitCallbacksFor(instance any) {
	var remaining []initEntry
	var due []initEntry
	for _, e := range cc.initCallbacks {
		if sameInstance(e.owner, instance) {
			due = append(due, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	cc.initCallbacks = remaining
	for _, e := range due {
		e.cb.Init(e.owner)
	}
}

// fireAllInitCallbacks fires the callbacks of every wired instance in
// registration order. Callbacks owned by instances this context does not have
// wired stay in the ledger.
func (cc *CreationalContext) fireAllInitCallbacks() {
	var remaining []initEntry
	var due []initEntry
	for _, e := range cc.initCallbacks {
		if cc.isWired(e.owner) {
			due = append(due, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	cc.initCallbacks = remaining
	if len(remaining) > 0 {
		cc.log.Warn("initialization callbacks for unwired instances were not fired",
			zap.Int("count", len(remaining)))
	}
	for _, e := range due {
		e.cb.Init(e.owner)
	}
}

func (cc *CreationalContext) registerAllBeans() {
	for _, inst := range cc.created {
		cc.manager.AddBeanToContext(inst, cc)
	}
}

func (cc *CreationalContext) isWired(instance any) bool {
	for _, w := range cc.wired {
		if sameInstance(w, instance) {
			return true
		}
	}
	return false
}

// rollback withdraws the singletons this context published, newest first.
func (cc *CreationalContext) rollback() {
	for i := len(cc.rollbacks) - 1; i >= 0; i-- {
		cc.rollbacks[i]()
	}
	cc.rollbacks = nil
}

// destroy runs the destruction callbacks owned by instance, newest first.
func (cc *CreationalContext) destroy(instance any) {
	var due []destroyEntry
	cc.destroyCallbacks = slices.DeleteFunc(cc.destroyCallbacks, func(e destroyEntry) bool {
		if sameInstance(e.owner, instance) {
			due = append(due, e)
			return true
		}
		return false
	})
	for i := len(due) - 1; i >= 0; i-- {
		due[i].cb.Destroy(due[i].owner)
	}
}

// sameInstance compares instances by identity where the type allows it.
func sameInstance(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
