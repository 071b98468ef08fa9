package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct{ id int }

func resolveTwice(t *testing.T, cc *CreationalContext) (first, second error) {
	t.Helper()
	calls := 0
	cc.resolveAllProxies(func(err error) { first = err; calls++ })
	cc.resolveAllProxies(func(err error) { second = err; calls++ })
	require.Equal(t, 2, calls, "resolution did not complete synchronously")
	return first, second
}

func TestResolveAllProxies_SecondPassIsANoOp(t *testing.T) {
	t.Parallel()

	t.Run("resolved refs", func(t *testing.T) {
		cc := New().NewContext()
		ref := RefOf[*part]()
		p := &part{id: 1}

		resolved, inits := 0, 0
		cc.AddUnresolvedProxy(ref, ProxyResolverFunc(func(any) { resolved++ }))
		cc.AddInitializationCallback(p, InitFunc(func(any) { inits++ }))
		require.NoError(t, cc.AddBean(ref, p))

		first, second := resolveTwice(t, cc)

		assert.NoError(t, first)
		assert.NoError(t, second)
		assert.Equal(t, 1, resolved)
		assert.Equal(t, 1, inits)
		assert.Empty(t, cc.UnresolvedRefs())
		assert.Zero(t, cc.PendingInitializations())
	})

	t.Run("unsatisfied refs", func(t *testing.T) {
		cc := New().NewContext()
		ref := RefOf[*part](Named("missing"))
		resolved := 0
		cc.AddUnresolvedProxy(ref, ProxyResolverFunc(func(any) { resolved++ }))

		first, second := resolveTwice(t, cc)

		assert.NoError(t, first)
		assert.NoError(t, second)
		assert.Zero(t, resolved)
		assert.Equal(t, []BeanRef{ref}, cc.UnresolvedRefs())
		assert.Len(t, cc.unresolved[ref], 1)
	})

	t.Run("created on demand", func(t *testing.T) {
		m := New()
		built := 0
		Define[*part](m).Provide(Sync(func(*CreationalContext) *part {
			built++
			return &part{id: built}
		}))
		cc := m.NewContext()
		var got []any
		cc.AddUnresolvedProxy(RefOf[*part](), ProxyResolverFunc(func(v any) { got = append(got, v) }))

		first, second := resolveTwice(t, cc)

		assert.NoError(t, first)
		assert.NoError(t, second)
		assert.Equal(t, 1, built)
		require.Len(t, got, 1)
		wired, _ := cc.Wired(RefOf[*part]())
		assert.Same(t, wired, got[0])
	})
}
