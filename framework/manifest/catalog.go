package manifest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/km-arc/go-async-ioc/framework/container"
)

// binding knows how to register one factory for an entry.
type binding struct {
	ref    func(e Entry) container.BeanRef
	define func(m *container.Manager, e Entry) *container.Bean
}

// Catalog maps factory names used in manifests to typed bean providers.
type Catalog struct {
	mu       sync.RWMutex
	bindings map[string]binding
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bindings: make(map[string]binding)}
}

// Bind makes factory available to manifests. Binding a name twice panics.
//
//	manifest.Bind(cat, "ui.toolbar", container.Sync(newToolbar))
func Bind[T any](c *Catalog, factory string, p container.BeanProvider[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.bindings[factory]; exists {
		panic(fmt.Sprintf("manifest: factory %q already bound", factory))
	}
	c.bindings[factory] = binding{
		ref: func(e Entry) container.BeanRef {
			return container.RefOf[T](append(e.BeanQualifiers(), container.Named(e.Name))...)
		},
		// each entry gets its own provider identity, so two singleton
		// entries bound to one factory are constructed separately
		define: func(m *container.Manager, e Entry) *container.Bean {
			return container.Define[T](m).
				Named(e.Name).
				Qualified(e.BeanQualifiers()...).
				InScope(e.BeanScope()).
				Provide(container.NewProvider(p.GetInstance))
		},
	}
}

// Factories returns the bound factory names, sorted.
func (c *Catalog) Factories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (c *Catalog) lookup(factory string) (binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[factory]
	return b, ok
}
