package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-async-ioc/framework/loop"
)

func TestQueue_RunsInPostOrderIncludingNestedPosts(t *testing.T) {
	t.Parallel()

	q := &loop.Queue{}
	var got []string

	q.Post(func() {
		got = append(got, "a")
		q.Post(func() { got = append(got, "c") })
	})
	q.Post(func() { got = append(got, "b") })
	q.Post(nil)

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 3, q.RunUntilIdle())
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.False(t, q.RunNext())
}

func TestEventLoop_RunsTasksPostedFromOtherGoroutines(t *testing.T) {
	t.Parallel()

	el := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- el.Run(ctx) }()

	done := make(chan []int, 1)
	var seen []int
	for i := 0; i < 5; i++ {
		i := i
		go func() {
			el.Post(func() {
				seen = append(seen, i)
				if len(seen) == 5 {
					done <- seen
				}
			})
		}()
	}

	select {
	case got := <-done:
		assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}

	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
}

func TestEventLoop_PanicStopsRun(t *testing.T) {
	t.Parallel()

	el := loop.New()
	boom := errors.New("boom")
	el.Post(func() { panic(boom) })
	el.Post(func() { t.Error("task after a panic must not run") })

	err := el.Run(context.Background())

	var perr *loop.PanicError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, perr.Stack)
}
