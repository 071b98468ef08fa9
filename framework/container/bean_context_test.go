package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-async-ioc/framework/container"
)

func newBeanContext(t *testing.T) *container.BeanContext {
	t.Helper()
	return container.New().NewContext().BeanContext()
}

func TestBeanContext_FinishWithNothingPendingRunsAtOnce(t *testing.T) {
	t.Parallel()

	bc := newBeanContext(t)
	ran := false
	bc.RunOnFinish(func() { ran = true })

	assert.Equal(t, container.PhaseOpen, bc.Phase())
	bc.Finish()

	assert.True(t, ran)
	assert.Equal(t, container.PhaseFinished, bc.Phase())
}

func TestBeanContext_FinishWaitsForTickets(t *testing.T) {
	t.Parallel()

	bc := newBeanContext(t)
	first := bc.Wait("first")
	second := bc.Wait("second")
	runs := 0
	bc.RunOnFinish(func() { runs++ })

	bc.Finish()
	assert.Equal(t, container.PhaseFinishing, bc.Phase())
	assert.True(t, bc.IsWaitedOn(first))
	assert.Equal(t, 2, bc.Pending())

	bc.Done(first)
	assert.Equal(t, 0, runs)
	assert.False(t, bc.IsWaitedOn(first))

	bc.Done(second)
	assert.Equal(t, 1, runs)
	assert.Equal(t, container.PhaseFinished, bc.Phase())

	bc.Finish()
	bc.Done(second)
	assert.Equal(t, 1, runs)
}

func TestBeanContext_QueuesDrainInOrder(t *testing.T) {
	t.Parallel()

	bc := newBeanContext(t)
	var got []string
	add := func(s string) func() { return func() { got = append(got, s) } }

	bc.RunOnFinish(func() {
		got = append(got, "a")
		bc.RunOnFinish(add("c"))
		bc.AppendRunOnFinish(add("e"))
	})
	bc.AppendRunOnFinish(add("d"))
	bc.RunOnFinish(add("b"))

	bc.Finish()

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestBeanContext_ActionsAfterFinishRunImmediately(t *testing.T) {
	t.Parallel()

	bc := newBeanContext(t)
	bc.Finish()

	var got []string
	bc.RunOnFinish(func() { got = append(got, "run") })
	bc.AppendRunOnFinish(func() { got = append(got, "append") })

	assert.Equal(t, []string{"run", "append"}, got)
}

func TestBeanContext_NilTicket(t *testing.T) {
	t.Parallel()

	bc := newBeanContext(t)
	assert.False(t, bc.IsWaitedOn(nil))
	assert.NotPanics(t, func() { bc.Done(nil) })

	ticket := bc.Wait("label")
	assert.Equal(t, "label", ticket.Label())
	assert.NotEqual(t, ticket.ID(), bc.Wait("other").ID())
	assert.Equal(t, "CreationalContext dependent", bc.Comment())
}

func TestBeanContext_AsyncActionHoldsLaterActions(t *testing.T) {
	t.Parallel()

	bc := newBeanContext(t)
	var got []string
	var settle func()

	bc.RunOnFinishAsync(func(settled func()) {
		got = append(got, "start")
		settle = settled
	})
	bc.RunOnFinish(func() { got = append(got, "next") })
	bc.AppendRunOnFinish(func() { got = append(got, "appended") })

	bc.Finish()
	assert.Equal(t, []string{"start"}, got)
	assert.Equal(t, container.PhaseFinished, bc.Phase())

	// queued behind the unsettled action
	bc.AppendRunOnFinish(func() { got = append(got, "late") })
	assert.Equal(t, []string{"start"}, got)

	settle()
	assert.Equal(t, []string{"start", "next", "appended", "late"}, got)
	assert.Panics(t, settle)

	bc.AppendRunOnFinish(func() { got = append(got, "after") })
	assert.Equal(t, "after", got[len(got)-1])
}
