package manifest

import (
	"github.com/km-arc/go-async-ioc/framework/container"
)

// Providers turns m into service providers: one eager provider for the
// regular entries and one deferred provider per deferred entry, so each of
// those loads on its own the first time it is needed.
func Providers(m *Manifest, c *Catalog) ([]container.ServiceProvider, error) {
	eager := &entriesProvider{}
	var out []container.ServiceProvider

	for i, e := range m.Beans {
		b, ok := c.lookup(e.Factory)
		if !ok {
			return nil, &EntryError{Index: i, Name: e.Name, Err: ErrUnknownFactory}
		}
		be := boundEntry{entry: e, binding: b}
		if e.Deferred {
			out = append(out, &deferredEntryProvider{bound: be})
			continue
		}
		eager.entries = append(eager.entries, be)
	}
	if len(eager.entries) > 0 {
		out = append([]container.ServiceProvider{eager}, out...)
	}
	return out, nil
}

type boundEntry struct {
	entry   Entry
	binding binding
}

func (b boundEntry) define(m *container.Manager) *container.Bean {
	return b.binding.define(m, b.entry)
}

type entriesProvider struct {
	container.BaseProvider
	entries []boundEntry
}

func (p *entriesProvider) Register(m *container.Manager) {
	for _, e := range p.entries {
		e.define(m)
	}
}

type deferredEntryProvider struct {
	container.BaseProvider
	bound boundEntry
}

func (p *deferredEntryProvider) Register(m *container.Manager) { p.bound.define(m) }

func (p *deferredEntryProvider) IsDeferred() bool { return true }

func (p *deferredEntryProvider) Provides() []container.BeanRef {
	return []container.BeanRef{p.bound.binding.ref(p.bound.entry)}
}
