package container

import "go.uber.org/zap"

// InjectionContext ties a creational context to the bean manager so that
// singletons created in the context become visible to every later lookup.
type InjectionContext struct {
	manager *Manager
	cc      *CreationalContext
}

// NewInjectionContext binds cc to m.
func NewInjectionContext(m *Manager, cc *CreationalContext) *InjectionContext {
	return &InjectionContext{manager: m, cc: cc}
}

// CreationalContext returns the bound context.
func (ic *InjectionContext) CreationalContext() *CreationalContext { return ic.cc }

// Manager returns the bound bean manager.
func (ic *InjectionContext) Manager() *Manager { return ic.manager }

// AddBean wires instance under ref in the creational context and records it
// as the singleton produced by the provider identified by key. If the
// context's finish fails the manager forgets the instance again.
func (ic *InjectionContext) AddBean(ref BeanRef, key any, instance any) {
	if wired, ok := ic.cc.wired[ref]; !ok || !sameInstance(wired, instance) {
		if err := ic.cc.AddBean(ref, instance); err != nil {
			panic(err)
		}
	}
	if undo := ic.manager.registerSingleton(ref, key, instance); undo != nil {
		ic.cc.rollbacks = append(ic.cc.rollbacks, undo)
	}
	ic.cc.log.Debug("singleton added", zap.Stringer("ref", ref))
}
