package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-async-ioc/framework/container"
)

func TestWaitList_NilCallbackOnlyMarksInFlight(t *testing.T) {
	t.Parallel()

	w := container.NewWaitList[int]()
	key := &struct{ n int }{}

	assert.False(t, w.IsWaitedOn(key))
	w.AddWait(key, nil)
	assert.True(t, w.IsWaitedOn(key))
	assert.Equal(t, 0, w.Pending(key))
}

func TestWaitList_NotifyDeliversInOrderAndClears(t *testing.T) {
	t.Parallel()

	w := container.NewWaitList[string]()
	key := &struct{ n int }{}
	var got []string

	w.AddWait(key, nil)
	w.AddWait(key, func(v string) { got = append(got, "1:"+v) })
	w.AddWait(key, func(v string) { got = append(got, "2:"+v) })
	assert.Equal(t, 2, w.Pending(key))

	w.NotifyAllWaiting(key, "foo1")

	assert.Equal(t, []string{"1:foo1", "2:foo1"}, got)
	assert.False(t, w.IsWaitedOn(key))
}

func TestWaitList_WaiterRestartingConstructionIsKept(t *testing.T) {
	t.Parallel()

	w := container.NewWaitList[int]()
	key := &struct{ n int }{}

	w.AddWait(key, func(int) { w.AddWait(key, nil) })
	w.NotifyAllWaiting(key, 1)

	assert.True(t, w.IsWaitedOn(key))
}

func TestWaitList_NotifyUnknownKeyIsNoop(t *testing.T) {
	t.Parallel()

	w := container.NewWaitList[int]()
	assert.NotPanics(t, func() { w.NotifyAllWaiting("absent", 1) })
}

func TestWaitList_RejectsUnusableKeys(t *testing.T) {
	t.Parallel()

	w := container.NewWaitList[int]()
	assert.Panics(t, func() { w.AddWait(nil, nil) })
	assert.Panics(t, func() { w.IsWaitedOn([]int{1}) })
}
