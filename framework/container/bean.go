package container

import (
	"reflect"
	"slices"
)

// Scope is the lifetime of a bean definition.
type Scope int

const (
	// Dependent beans are constructed for every request.
	Dependent Scope = iota
	// Singleton beans have at most one live instance per bean manager.
	Singleton
)

func (s Scope) String() string {
	switch s {
	case Dependent:
		return "dependent"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// ParseScope maps "singleton" and "dependent" to a Scope.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "singleton":
		return Singleton, true
	case "dependent", "":
		return Dependent, true
	}
	return Dependent, false
}

// BeanDef is a bean definition as seen by creational contexts.
type BeanDef interface {
	// Type is the declared bean type.
	Type() reflect.Type
	// Qualifiers is the effective qualifier set, @Default and @Any included.
	Qualifiers() []Qualifier
	Name() string
	Scope() Scope
	// Instance returns the live instance of a singleton, if one exists.
	Instance() (any, bool)
	// GetInstance obtains an instance within cc and delivers it to cb.
	GetInstance(cb func(any), cc *CreationalContext)
}

// Bean is the definition type registered with a Manager.
type Bean struct {
	manager    *Manager
	typ        reflect.Type
	as         []reflect.Type
	qualifiers []Qualifier
	name       string
	scope      Scope
	provider   anyProvider
	key        any

	instance    any
	hasInstance bool
}

// Type implements BeanDef.
func (b *Bean) Type() reflect.Type { return b.typ }

// Name implements BeanDef.
func (b *Bean) Name() string { return b.name }

// Scope implements BeanDef.
func (b *Bean) Scope() Scope { return b.scope }

// Qualifiers implements BeanDef.
func (b *Bean) Qualifiers() []Qualifier {
	out := make([]Qualifier, 0, len(b.qualifiers)+2)
	if len(b.qualifiers) == 0 {
		out = append(out, Default)
	}
	out = append(out, b.qualifiers...)
	return append(out, Any)
}

// Ref is the reference instances of this bean are wired under.
func (b *Bean) Ref() BeanRef { return NewBeanRef(b.typ, b.qualifiers...) }

// Instance implements BeanDef.
func (b *Bean) Instance() (any, bool) {
	b.manager.mu.RLock()
	defer b.manager.mu.RUnlock()
	return b.instance, b.hasInstance
}

// GetInstance implements BeanDef. Singletons go through the context's
// singleton coordination; dependent beans call their provider directly and
// are wired under the bean's ref unless something already is.
func (b *Bean) GetInstance(cb func(any), cc *CreationalContext) {
	if inst, ok := b.Instance(); ok {
		cb(inst)
		return
	}
	if b.provider == nil {
		panic("container: bean " + b.String() + " has neither instance nor provider")
	}
	if b.scope == Singleton {
		cc.getSingletonInstanceOrNew(NewInjectionContext(b.manager, cc), b.key, b.provider, cb, b.Ref())
		return
	}
	ref := b.Ref()
	b.provider.getAny(once(b.String(), func(v any) {
		if _, wired := cc.wired[ref]; wired {
			cc.addCreated(v)
		} else if err := cc.AddBean(ref, v); err != nil {
			panic(err)
		}
		cb(v)
	}), cc)
}

// String names the bean for diagnostics.
func (b *Bean) String() string {
	if b.name != "" {
		return b.name + " (" + b.Ref().String() + ")"
	}
	return b.Ref().String()
}

func (b *Bean) assignableTo(t reflect.Type) bool {
	if t == b.typ || slices.Contains(b.as, t) {
		return true
	}
	return t.Kind() == reflect.Interface && b.typ.Implements(t)
}

func (b *Bean) hasQualifiers(requested []Qualifier) bool {
	effective := b.Qualifiers()
	for _, q := range requested {
		if !slices.Contains(effective, q) {
			return false
		}
	}
	return true
}
