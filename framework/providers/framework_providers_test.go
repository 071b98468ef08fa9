package providers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-async-ioc/framework/config"
	"github.com/km-arc/go-async-ioc/framework/container"
	"github.com/km-arc/go-async-ioc/framework/debug"
	"github.com/km-arc/go-async-ioc/framework/loop"
	"github.com/km-arc/go-async-ioc/framework/providers"
	"github.com/km-arc/go-async-ioc/framework/routing"
)

func lookup[T any](t *testing.T, m *container.Manager, q *loop.Queue, name string) T {
	t.Helper()
	var (
		got    T
		err    error
		called bool
	)
	container.Lookup(m, func(v T, e error) { got, err, called = v, e, true }, container.Named(name))
	q.RunUntilIdle()
	require.True(t, called, "lookup of %q never completed", name)
	require.NoError(t, err)
	return got
}

func setup(t *testing.T) (*container.Manager, *loop.Queue, *container.ProviderRegistry, *providers.DebugServiceProvider) {
	t.Helper()
	m := container.New()
	q := &loop.Queue{}
	reg := container.NewProviderRegistry(m, q)

	dbg := &providers.DebugServiceProvider{}
	reg.Register(&providers.ConfigServiceProvider{Config: config.Load("testdata/none.env")})
	reg.Register(&providers.LoggingServiceProvider{Logger: zap.NewNop()})
	reg.Register(&providers.LoopServiceProvider{Loop: q})
	reg.Register(&providers.RoutingServiceProvider{})
	reg.Register(dbg)
	reg.Boot()
	return m, q, reg, dbg
}

func TestFrameworkProviders_InstanceBeans(t *testing.T) {
	m, q, _, _ := setup(t)

	cfg := lookup[*config.Config](t, m, q, providers.ConfigBean)
	assert.Equal(t, "AsyncIoC", cfg.App.Name)

	assert.NotNil(t, lookup[*zap.Logger](t, m, q, providers.LoggerBean))
	assert.Equal(t, loop.Loop(q), lookup[loop.Loop](t, m, q, providers.LoopBean))
}

func TestRoutingServiceProvider_Singleton(t *testing.T) {
	m, q, _, _ := setup(t)

	r1 := lookup[*routing.Router](t, m, q, providers.RouterBean)
	r2 := lookup[*routing.Router](t, m, q, providers.RouterBean)
	require.NotNil(t, r1)
	assert.Same(t, r1, r2)
}

func TestDebugServiceProvider_LoadsOnFirstUse(t *testing.T) {
	m, q, reg, dbg := setup(t)
	assert.False(t, reg.Loaded(dbg))

	h := lookup[*debug.Handler](t, m, q, providers.DebugBean)
	require.NotNil(t, h)
	assert.True(t, reg.Loaded(dbg))

	assert.Same(t, h, lookup[*debug.Handler](t, m, q, providers.DebugBean))
}
