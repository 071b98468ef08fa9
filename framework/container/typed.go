package container

// Typed entry points over CreationalContext. Go methods cannot take type
// parameters, so these are package functions.

// GetInstanceOrNew delivers the T wired under qualifiers in cc, or asks p for
// a new one.
func GetInstanceOrNew[T any](cc *CreationalContext, p BeanProvider[T], cb func(T), qualifiers ...Qualifier) {
	_, ap := erase(p)
	cc.getInstanceOrNew(RefOf[T](qualifiers...), ap, func(v any) { cb(cast[T](v)) })
}

// GetBeanInstance delivers the T wired in cc, or the live singleton the bean
// manager holds for it, or the zero T. A non-nil waiter that is still pending
// in cc's bean context defers the lookup until the finish phase has run.
func GetBeanInstance[T any](cc *CreationalContext, waiter *Ticket, cb func(T), qualifiers ...Qualifier) {
	cc.getBeanInstance(waiter, func(v any) { cb(cast[T](v)) }, RefOf[T](qualifiers...))
}

// GetSingletonInstanceOrNew delivers the singleton T, constructing it with p
// only if no construction is already in flight. Every caller that arrives
// while p is running receives the same instance.
func GetSingletonInstanceOrNew[T any](cc *CreationalContext, ic *InjectionContext, p BeanProvider[T], cb func(T), qualifiers ...Qualifier) {
	key, ap := erase(p)
	cc.getSingletonInstanceOrNew(ic, key, ap, func(v any) { cb(cast[T](v)) }, RefOf[T](qualifiers...))
}

// Wired returns the T wired in cc under qualifiers.
func Wired[T any](cc *CreationalContext, qualifiers ...Qualifier) (T, bool) {
	v, ok := cc.Wired(RefOf[T](qualifiers...))
	if !ok {
		var zero T
		return zero, false
	}
	return cast[T](v), true
}

// Wire wires v as the T under qualifiers in cc.
func Wire[T any](cc *CreationalContext, v T, qualifiers ...Qualifier) error {
	return cc.AddBean(RefOf[T](qualifiers...), v)
}
