package container

import "reflect"

// Definition is the fluent builder for bean definitions.
//
//	container.Define[*Toolbar](m).
//	    Named("toolbar").
//	    Singleton().
//	    Provide(container.Sync(newToolbar))
//
//	container.Define[*Config](m).Instance(cfg)
type Definition[T any] struct {
	manager    *Manager
	name       string
	qualifiers []Qualifier
	as         []reflect.Type
	scope      Scope
}

// Define starts a definition for T in m. Beans are dependent unless Singleton
// is called.
func Define[T any](m *Manager) *Definition[T] {
	return &Definition[T]{manager: m, scope: Dependent}
}

// Named gives the bean a unique name and the matching @Named qualifier.
func (d *Definition[T]) Named(name string) *Definition[T] {
	d.name = name
	d.qualifiers = append(d.qualifiers, Named(name))
	return d
}

// Qualified adds qualifiers.
func (d *Definition[T]) Qualified(qualifiers ...Qualifier) *Definition[T] {
	d.qualifiers = append(d.qualifiers, qualifiers...)
	return d
}

// As makes the bean match lookups for additional types. Interfaces T
// implements match without being listed.
func (d *Definition[T]) As(types ...reflect.Type) *Definition[T] {
	d.as = append(d.as, types...)
	return d
}

// Singleton gives the bean singleton scope.
func (d *Definition[T]) Singleton() *Definition[T] {
	d.scope = Singleton
	return d
}

// InScope sets the scope explicitly.
func (d *Definition[T]) InScope(scope Scope) *Definition[T] {
	d.scope = scope
	return d
}

// Provide registers the definition with p as its provider.
func (d *Definition[T]) Provide(p BeanProvider[T]) *Bean {
	key, ap := erase(p)
	b := d.bean()
	b.provider, b.key = ap, key
	return d.manager.register(b)
}

// Instance registers an already constructed singleton.
func (d *Definition[T]) Instance(v T) *Bean {
	b := d.bean()
	b.scope = Singleton
	b.instance, b.hasInstance = v, true
	return d.manager.register(b)
}

func (d *Definition[T]) bean() *Bean {
	return &Bean{
		manager:    d.manager,
		typ:        reflect.TypeFor[T](),
		as:         d.as,
		qualifiers: canonicalSet(d.qualifiers),
		name:       d.name,
		scope:      d.scope,
	}
}

func canonicalSet(qualifiers []Qualifier) []Qualifier {
	return NewBeanRef(nil, qualifiers...).Qualifiers()
}
