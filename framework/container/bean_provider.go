package container

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/km-arc/go-async-ioc/framework/loop"
)

// BeanProvider constructs instances of T. GetInstance must invoke cb exactly
// once, possibly on a later loop turn; cc is the context the instance belongs
// to and may be used to request further beans.
//
// Providers are compared by identity in wait lists, so implementations should
// be pointers.
type BeanProvider[T any] interface {
	GetInstance(cb func(T), cc *CreationalContext)
}

// anyProvider is the type-erased form used by the context internals.
type anyProvider interface {
	getAny(cb func(any), cc *CreationalContext)
}

// Provider is the stock BeanProvider built from a function.
type Provider[T any] struct {
	fn func(cb func(T), cc *CreationalContext)
}

// NewProvider wraps a callback-style construction function.
func NewProvider[T any](fn func(cb func(T), cc *CreationalContext)) *Provider[T] {
	if fn == nil {
		panic("container: NewProvider with nil function")
	}
	return &Provider[T]{fn: fn}
}

// Sync wraps a constructor that completes immediately.
func Sync[T any](fn func(cc *CreationalContext) T) *Provider[T] {
	return NewProvider(func(cb func(T), cc *CreationalContext) {
		cb(fn(cc))
	})
}

// Deferred wraps a constructor whose result is only delivered on a later turn
// of lp, as when the code for the bean lives in a fragment that still has to
// be loaded.
func Deferred[T any](lp loop.Loop, fn func(cc *CreationalContext) T) *Provider[T] {
	return NewProvider(func(cb func(T), cc *CreationalContext) {
		lp.Post(func() { cb(fn(cc)) })
	})
}

// GetInstance implements BeanProvider.
func (p *Provider[T]) GetInstance(cb func(T), cc *CreationalContext) {
	p.fn(cb, cc)
}

func (p *Provider[T]) getAny(cb func(any), cc *CreationalContext) {
	p.fn(func(v T) { cb(v) }, cc)
}

type providerAdapter[T any] struct {
	p BeanProvider[T]
}

func (a providerAdapter[T]) getAny(cb func(any), cc *CreationalContext) {
	a.p.GetInstance(func(v T) { cb(v) }, cc)
}

// erase returns the identity key and type-erased form of p.
func erase[T any](p BeanProvider[T]) (any, anyProvider) {
	if p == nil {
		panic("container: nil bean provider")
	}
	if ap, ok := p.(anyProvider); ok {
		return p, ap
	}
	return p, providerAdapter[T]{p: p}
}

// once enforces the exactly-once callback contract on provider completions.
func once(label string, cb func(any)) func(any) {
	var fired atomic.Bool
	return func(v any) {
		if !fired.CompareAndSwap(false, true) {
			panic(fmt.Sprintf("container: provider for %s invoked its callback twice", label))
		}
		cb(v)
	}
}

// cast converts a type-erased instance at the typed boundary.
func cast[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("container: instance of %T is not a %s", v, reflect.TypeFor[T]()))
	}
	return typed
}
