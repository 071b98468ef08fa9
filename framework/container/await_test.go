package container_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-async-ioc/framework/container"
	"github.com/km-arc/go-async-ioc/framework/loop"
)

func runLoop(t *testing.T) *loop.EventLoop {
	t.Helper()
	el := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = el.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return el
}

func TestAwait_DeliversLookupResult(t *testing.T) {
	t.Parallel()

	el := runLoop(t)
	m := container.New()
	c := &counter{}
	container.Define[*engine](m).Singleton().Provide(container.Deferred(el, c.build))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := container.Await(ctx, el, func(done func(*engine, error)) {
		container.Lookup(m, done)
	})
	require.NoError(t, err)

	second, err := container.Await(ctx, el, func(done func(*engine, error)) {
		container.Lookup(m, done)
	})
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestAwait_ReturnsLookupError(t *testing.T) {
	t.Parallel()

	el := runLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := container.Await(ctx, el, func(done func(*wheel, error)) {
		container.Lookup(container.New(), done)
	})
	assert.ErrorIs(t, err, container.ErrUnsatisfiedBean)
}

func TestAwait_StopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	el := runLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := container.Await(ctx, el, func(func(*engine, error)) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, got)
}

func TestAwait_DeferredProviderWithLoadDelay(t *testing.T) {
	t.Parallel()

	el := runLoop(t)
	m := container.New()
	reg := container.NewProviderRegistry(m, el, container.WithLoadDelay(20*time.Millisecond))
	p := &deferredProvider{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := container.Await(ctx, el, func(done func(struct{}, error)) {
		reg.Register(p)
		reg.Boot()
		done(struct{}{}, nil)
	})
	require.NoError(t, err)

	start := time.Now()
	r, err := container.Await(ctx, el, func(done func(*report, error)) {
		container.Lookup(m, done)
	})
	require.NoError(t, err)
	assert.Equal(t, "quarterly", r.title)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 1, p.registerCalls)
	assert.True(t, p.bootCalled)
}
